package bearer

import "testing"

func TestNewBufferGroupRecordValidation(t *testing.T) {
	if _, err := NewBufferGroupRecord(0, 64); err == nil {
		t.Fatal("numBufs == 0 should fail")
	}
	if _, err := NewBufferGroupRecord(4, 0); err == nil {
		t.Fatal("lenPerBuf == 0 should fail")
	}
}

func TestBufferGroupViewSelect(t *testing.T) {
	grp, err := NewBufferGroupRecord(2, 8)
	if err != nil {
		t.Fatalf("NewBufferGroupRecord: %v", err)
	}
	buf, err := grp.ViewSelect(1, 4)
	if err != nil {
		t.Fatalf("ViewSelect: %v", err)
	}
	if len(buf) != 4 {
		t.Fatalf("len(buf) = %d, want 4", len(buf))
	}

	if _, err := grp.ViewSelect(2, 4); err == nil {
		t.Fatal("out-of-range select index should fail")
	}
	if _, err := grp.ViewSelect(0, 0); err == nil {
		t.Fatal("zero length should fail")
	}
	if _, err := grp.ViewSelect(0, 9); err == nil {
		t.Fatal("length exceeding LenPerBuf should fail")
	}
}

func TestBufferGroupTakeOneMutableRequiresSingleton(t *testing.T) {
	grp, _ := NewBufferGroupRecord(2, 8)
	if _, err := grp.TakeOneMutable(); err == nil {
		t.Fatal("TakeOneMutable on non-singleton group should fail")
	}

	singleton, _ := NewBufferGroupRecord(1, 8)
	taken, err := singleton.TakeOneMutable()
	if err != nil {
		t.Fatalf("TakeOneMutable: %v", err)
	}
	if len(taken.Bytes()) != 8 {
		t.Errorf("len(Bytes()) = %d, want 8", len(taken.Bytes()))
	}
	if singleton.Owner() != OwnerTaken {
		t.Errorf("Owner() = %s, want Taken", singleton.Owner())
	}

	if _, err := singleton.TakeOneMutable(); err == nil {
		t.Fatal("second Take on already-taken group should fail")
	}
}

func TestBufferGroupTakeOneImmutable(t *testing.T) {
	singleton, _ := NewBufferGroupRecord(1, 16)
	taken, err := singleton.TakeOneImmutable()
	if err != nil {
		t.Fatalf("TakeOneImmutable: %v", err)
	}
	if len(taken.Bytes()) != 16 {
		t.Errorf("len(Bytes()) = %d, want 16", len(taken.Bytes()))
	}
}

func TestBufferGroupForceKernelAndMarkReusable(t *testing.T) {
	grp, _ := NewBufferGroupRecord(1, 8)
	grp.ForceKernel()
	if grp.Owner() != OwnerKernel {
		t.Fatalf("Owner() = %s, want Kernel", grp.Owner())
	}
	grp.MarkReusable()
	if grp.Owner() != OwnerReusable {
		t.Fatalf("Owner() = %s, want Reusable", grp.Owner())
	}
}
