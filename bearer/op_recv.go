package bearer

import (
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// RecvRecord backs a one-shot Recv into a single owned buffer, taken
// from its buffer group via Owner.Take.
type RecvRecord struct {
	state   OwnerState
	fixedFd uint32
	taken   *TakenMutableBuffer
}

// NewRecv builds a Recv record reading into the singleton buffer owned
// by group, targeting the receiver registered at fixed index fixedFd.
// Fails if group is not a singleton (NumBufs != 1).
func NewRecv(fixedFd uint32, group *BufferGroupRecord) (*RecvRecord, error) {
	taken, err := group.TakeOneMutable()
	if err != nil {
		return nil, err
	}
	return &RecvRecord{state: OwnerState{current: OwnerTaken}, fixedFd: fixedFd, taken: taken}, nil
}

func (r *RecvRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	buf := r.taken.Bytes()
	sqe.Opcode = uint8(sys.IORING_OP_RECV)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(r.fixedFd)
	if len(buf) > 0 {
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
	}
	sqe.Len = uint32(len(buf))
	sqe.UserData = key
	return nil
}

func (r *RecvRecord) Owner() Owner { return r.state.Current() }
func (r *RecvRecord) ForceKernel() { r.state.ForceKernel() }

// Buffer returns the taken receive buffer.
func (r *RecvRecord) Buffer() []byte { return r.taken.Bytes() }

// RecvMultiRecord backs a multishot Recv that consumes a buffer from
// the named buffer-group on each completion; the selected buffer id
// arrives in the CQE flags.
type RecvMultiRecord struct {
	state   OwnerState
	fixedFd uint32
	bgid    uint16
}

// NewRecvMulti builds a RecvMulti record over the receiver at fixed
// index fixedFd, selecting buffers from group bgid.
func NewRecvMulti(fixedFd uint32, bgid uint16) *RecvMultiRecord {
	return &RecvMultiRecord{state: NewOwnerState(), fixedFd: fixedFd, bgid: bgid}
}

func (r *RecvMultiRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_RECV)
	sqe.Flags |= sys.IOSQE_FIXED_FILE | sys.IOSQE_BUFFER_SELECT
	sqe.Fd = int32(r.fixedFd)
	sqe.Ioprio = sys.IORING_RECV_MULTISHOT
	sqe.SetBufGroup(r.bgid)
	sqe.UserData = key
	return nil
}

func (r *RecvMultiRecord) Owner() Owner { return r.state.Current() }

// ForceKernel is sticky: calling it while already Kernel-owned is a
// no-op, matching the multishot lifecycle.
func (r *RecvMultiRecord) ForceKernel() {
	if r.state.Current() != OwnerKernel {
		r.state.ForceKernel()
	}
}

// BufGroupID returns the buffer-group id this record selects from.
func (r *RecvMultiRecord) BufGroupID() uint16 { return r.bgid }

// FixedFd returns the receiver's fixed index.
func (r *RecvMultiRecord) FixedFd() uint32 { return r.fixedFd }
