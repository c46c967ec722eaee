package bearer

import (
	"errors"
	"syscall"
	"testing"
)

func skipIfNoIOURing(t *testing.T) {
	t.Helper()
	b, err := WithCapacity(Capacity{
		CoreQueue:          64,
		RegisteredFd:       8,
		PendingCompletions: 64,
	})
	if err != nil {
		if errors.Is(err, syscall.ENOSYS) {
			t.Skip("io_uring not supported on this kernel")
		}
		if errors.Is(err, syscall.EPERM) {
			t.Skip("io_uring blocked by seccomp or permissions")
		}
		t.Skipf("io_uring unavailable: %v", err)
	}
	b.Close()
}

func testCapacity() Capacity {
	return Capacity{
		CoreQueue:          64,
		RegisteredFd:       8,
		PendingCompletions: 64,
		Buffers:            8,
		Futexes:            8,
	}
}

func TestWithCapacityRejectsNonPowerOfTwoQueue(t *testing.T) {
	skipIfNoIOURing(t)
	_, err := WithCapacity(Capacity{CoreQueue: 100, PendingCompletions: 8})
	if err == nil {
		t.Fatal("WithCapacity with non-power-of-two CoreQueue should fail")
	}
}

func TestWithCapacityZeroBuffersAndFutexesYieldsNilStores(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(Capacity{CoreQueue: 64, PendingCompletions: 8})
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	if _, err := b.ViewBufferSelect(0, 0, 1); err == nil {
		t.Fatal("ViewBufferSelect should fail when Bearer has zero Buffers capacity")
	}
	if _, err := b.GetFutexHandle(0); err == nil {
		t.Fatal("GetFutexHandle should fail when Bearer has zero Futexes capacity")
	}
}

func TestBearerCreateAndDestroyBuffers(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateBuffers(4, 64)
	if err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	buf, err := b.ViewBufferSelect(id, 1, 10)
	if err != nil {
		t.Fatalf("ViewBufferSelect: %v", err)
	}
	if len(buf) != 10 {
		t.Errorf("len(buf) = %d, want 10", len(buf))
	}
	if err := b.DestroyBuffers(id); err != nil {
		t.Fatalf("DestroyBuffers: %v", err)
	}
	if _, err := b.ViewBufferSelect(id, 0, 1); err == nil {
		t.Fatal("ViewBufferSelect should fail after DestroyBuffers")
	}
}

func TestBearerDestroyBuffersRefusesKernelOwned(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateBuffers(4, 16)
	if err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	if _, err := b.ProvideBuffers(id, 1, 0); err != nil {
		t.Fatalf("ProvideBuffers: %v", err)
	}

	err = b.DestroyBuffers(id)
	if err == nil {
		t.Fatal("DestroyBuffers should refuse a Kernel-owned group")
	}
	if _, ok := err.(*BufferNoOwnershipError); !ok {
		t.Fatalf("error type = %T, want *BufferNoOwnershipError", err)
	}
}

func TestBearerReclaimBuffersRequiresKernelOwnership(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateBuffers(4, 16)
	if err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}

	_, err = b.ReclaimBuffers(id, 1, 4)
	if err == nil {
		t.Fatal("ReclaimBuffers should refuse a non-Kernel-owned group")
	}
	if _, ok := err.(*BufferNotKernelOwnedError); !ok {
		t.Fatalf("error type = %T, want *BufferNotKernelOwnedError", err)
	}

	if _, err := b.ProvideBuffers(id, 1, 0); err != nil {
		t.Fatalf("ProvideBuffers: %v", err)
	}
	if _, err := b.ReclaimBuffers(id, 1, 4); err != nil {
		t.Fatalf("ReclaimBuffers: %v", err)
	}
}

func TestBearerCreateFutexAtomicLifecycle(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateFutexAtomic()
	if err != nil {
		t.Fatalf("CreateFutexAtomic: %v", err)
	}
	handle, err := b.GetFutexHandle(id)
	if err != nil {
		t.Fatalf("GetFutexHandle: %v", err)
	}
	if handle == nil {
		t.Fatal("GetFutexHandle returned nil handle")
	}
	if err := b.RemoveFutexAtomic(id); err != nil {
		t.Fatalf("RemoveFutexAtomic: %v", err)
	}
	if _, err := b.GetFutexHandle(id); err == nil {
		t.Fatal("GetFutexHandle should fail after RemoveFutexAtomic")
	}
}

func TestBearerAddFutexWaitTransitionsOwnership(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateFutexAtomic()
	if err != nil {
		t.Fatalf("CreateFutexAtomic: %v", err)
	}
	if _, err := b.AddFutexWait(id, 0xffffffff, 0); err != nil {
		t.Fatalf("AddFutexWait: %v", err)
	}
	if err := b.RemoveFutexAtomic(id); err == nil {
		t.Fatal("RemoveFutexAtomic should refuse a Kernel-owned atomic")
	}
}

func TestBearerFdsRegistersIntoSharedTable(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	idx, err := b.Fds().RegisterAcceptor(-1)
	if err != nil {
		t.Fatalf("RegisterAcceptor: %v", err)
	}
	entry, ok := b.Fds().Get(idx)
	if !ok || entry.Kind != FdKindAcceptor {
		t.Fatalf("Get(%d) = %v, %v, want FdKindAcceptor entry", idx, entry, ok)
	}
}

func TestBearerRejectsOccupiedManualTarget(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	slot, err := b.Fds().RegisterAcceptor(-1)
	if err != nil {
		t.Fatalf("RegisterAcceptor: %v", err)
	}
	_, err = b.PushSocket(2 /* AF_INET */, 1 /* SOCK_STREAM */, 0, ManualRegistered(slot))
	if err == nil {
		t.Fatal("PushSocket targeting an occupied manual slot should fail")
	}
	if _, ok := err.(*InvalidTargetFdError); !ok {
		t.Fatalf("error type = %T, want *InvalidTargetFdError", err)
	}
}

func TestBearerUnknownBufferGroupReportsNotExist(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	if _, err := b.ViewBufferSelect(999, 0, 1); err == nil {
		t.Fatal("ViewBufferSelect on unknown id should fail")
	} else if _, ok := err.(*BufferNotExistError); !ok {
		t.Fatalf("error type = %T, want *BufferNotExistError", err)
	}
}

func TestBearerPushOpTypedAndDrain(t *testing.T) {
	skipIfNoIOURing(t)
	b, err := WithCapacity(testCapacity())
	if err != nil {
		t.Fatalf("WithCapacity: %v", err)
	}
	defer b.Close()

	id, err := b.CreateFutexAtomic()
	if err != nil {
		t.Fatalf("CreateFutexAtomic: %v", err)
	}
	handle, err := b.GetFutexHandle(id)
	if err != nil {
		t.Fatalf("GetFutexHandle: %v", err)
	}
	*handle = 5

	// expected=0 does not match the word's current value (5), so the
	// kernel resolves the wait immediately (EAGAIN) instead of blocking.
	key, err := b.AddFutexWait(id, 0xffffffff, 0)
	if err != nil {
		t.Fatalf("AddFutexWait: %v", err)
	}
	if _, err := b.SubmitAndWait(1); err != nil {
		t.Fatalf("SubmitAndWait: %v", err)
	}

	seen := false
	b.Completions(nil, func(_ any, cqe CQE, record OpRecord) {
		if cqe.UserData == key {
			seen = true
		}
	})
	if !seen {
		t.Fatal("completion for the FutexWait key was not observed")
	}
}
