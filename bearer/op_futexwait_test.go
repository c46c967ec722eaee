package bearer

import (
	"testing"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

func TestFutexWaitRecordBuildSQEntry(t *testing.T) {
	atomic := NewOwnedFutexAtomic()
	rec := NewFutexWait(atomic, 0xff, 5)

	var sqe sys.SQE
	if err := rec.BuildSQEntry(&sqe, 1); err != nil {
		t.Fatalf("BuildSQEntry: %v", err)
	}
	if sqe.Opcode != uint8(sys.IORING_OP_FUTEX_WAIT) {
		t.Errorf("Opcode = %d, want IORING_OP_FUTEX_WAIT", sqe.Opcode)
	}
	if sqe.Off != 5 {
		t.Errorf("Off (expected value) = %d, want 5", sqe.Off)
	}
	if sqe.Addr3 != 0xff {
		t.Errorf("Addr3 (bitset) = %#x, want 0xff", sqe.Addr3)
	}
	if sqe.Len != sys.FUTEX2_SIZE_U32 {
		t.Errorf("Len = %d, want FUTEX2_SIZE_U32", sqe.Len)
	}
	if atomic.Owner() != OwnerKernel {
		t.Errorf("referenced atomic Owner() = %s, want Kernel", atomic.Owner())
	}
}
