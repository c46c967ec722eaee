package bearer

import "testing"

func TestOwnedFutexAtomicHandle(t *testing.T) {
	rec := NewOwnedFutexAtomic()
	handle, ok := rec.Handle()
	if !ok {
		t.Fatal("Handle() ok = false for owned atomic")
	}
	if rec.Addr() != handle {
		t.Error("Addr() should return the same pointer as Handle()")
	}
}

func TestUnsafeFutexAtomicHasNoHandle(t *testing.T) {
	var word uint32
	rec := NewUnsafeFutexAtomic(&word)
	if _, ok := rec.Handle(); ok {
		t.Fatal("Handle() ok = true for externally supplied atomic")
	}
	if rec.Addr() != &word {
		t.Error("Addr() should return the externally supplied pointer")
	}
}

func TestFutexAtomicForceKernelAndMarkReusable(t *testing.T) {
	rec := NewOwnedFutexAtomic()
	rec.ForceKernel()
	if rec.Owner() != OwnerKernel {
		t.Fatalf("Owner() = %s, want Kernel", rec.Owner())
	}
	rec.MarkReusable()
	if rec.Owner() != OwnerReusable {
		t.Fatalf("Owner() = %s, want Reusable", rec.Owner())
	}
}
