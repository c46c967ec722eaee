package bearer

import (
	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// RemoveBuffersRecord backs a RemoveBuffers operation: asks the kernel
// to drop numBufs provided buffers registered under bgid, the inverse
// of ProvideBuffersRecord.
type RemoveBuffersRecord struct {
	state   OwnerState
	group   *BufferGroupRecord
	bgid    uint16
	numBufs uint16
}

// NewRemoveBuffers builds a RemoveBuffers record reclaiming numBufs
// buffers registered under bgid for group.
func NewRemoveBuffers(group *BufferGroupRecord, bgid uint16, numBufs uint16) *RemoveBuffersRecord {
	return &RemoveBuffersRecord{state: NewOwnerState(), group: group, bgid: bgid, numBufs: numBufs}
}

func (r *RemoveBuffersRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_REMOVE_BUFFERS)
	sqe.Fd = int32(r.numBufs)
	sqe.SetBufGroup(r.bgid)
	sqe.UserData = key
	r.group.MarkReusable()
	return nil
}

func (r *RemoveBuffersRecord) Owner() Owner { return r.state.Current() }
func (r *RemoveBuffersRecord) ForceKernel() { r.state.ForceKernel() }
