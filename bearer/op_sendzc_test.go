package bearer

import (
	"testing"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

func TestSendZeroCopyFixedUsesRealBufferLength(t *testing.T) {
	grp, _ := NewBufferGroupRecord(1, 37) // an odd length, never 2
	rec, err := NewSendZeroCopyFixed(9, grp)
	if err != nil {
		t.Fatalf("NewSendZeroCopyFixed: %v", err)
	}

	var sqe sys.SQE
	if err := rec.BuildSQEntry(&sqe, 1); err != nil {
		t.Fatalf("BuildSQEntry: %v", err)
	}
	if sqe.Opcode != uint8(sys.IORING_OP_SEND_ZC) {
		t.Errorf("Opcode = %d, want IORING_OP_SEND_ZC", sqe.Opcode)
	}
	if sqe.Len != 37 {
		t.Fatalf("Len = %d, want 37 (the real buffer length, not a hardcoded placeholder)", sqe.Len)
	}
}

func TestSendZeroCopyRawUsesSuppliedLength(t *testing.T) {
	buf := make([]byte, 128)
	rec := NewSendZeroCopyRaw(4, buf)

	var sqe sys.SQE
	if err := rec.BuildSQEntry(&sqe, 1); err != nil {
		t.Fatalf("BuildSQEntry: %v", err)
	}
	if sqe.Len != 128 {
		t.Errorf("Len = %d, want 128", sqe.Len)
	}
}

func TestSendZeroCopyRawEmptyBuffer(t *testing.T) {
	rec := NewSendZeroCopyRaw(4, nil)
	var sqe sys.SQE
	if err := rec.BuildSQEntry(&sqe, 1); err != nil {
		t.Fatalf("BuildSQEntry: %v", err)
	}
	if sqe.Len != 0 {
		t.Errorf("Len = %d, want 0", sqe.Len)
	}
}
