package bearer

import (
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// FutexWaitRecord backs a FutexWait operation: wait on the atomic's
// current value matching expected, gated by bitset.
type FutexWaitRecord struct {
	state    OwnerState
	atomic   *FutexAtomicRecord
	bitset   uint64
	expected uint32
}

// NewFutexWait builds a FutexWait record over atomic, waiting for its
// value to differ from expected (matched against bitset).
func NewFutexWait(atomic *FutexAtomicRecord, bitset uint64, expected uint32) *FutexWaitRecord {
	return &FutexWaitRecord{state: NewOwnerState(), atomic: atomic, bitset: bitset, expected: expected}
}

func (f *FutexWaitRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_FUTEX_WAIT)
	sqe.Addr = uint64(uintptr(unsafe.Pointer(f.atomic.Addr())))
	sqe.Off = uint64(f.expected)
	sqe.Addr3 = f.bitset
	sqe.Len = sys.FUTEX2_SIZE_U32
	sqe.UserData = key
	f.atomic.ForceKernel()
	return nil
}

func (f *FutexWaitRecord) Owner() Owner { return f.state.Current() }
func (f *FutexWaitRecord) ForceKernel() { f.state.ForceKernel() }
