package bearer

import (
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// ProvideBuffersRecord backs a ProvideBuffers operation: hands the
// kernel a buffer group's backing storage, split into numBufs equal
// buffers starting at startBid.
type ProvideBuffersRecord struct {
	state     OwnerState
	group     *BufferGroupRecord
	bgid      uint16
	startBid  uint16
}

// NewProvideBuffers builds a ProvideBuffers record over group,
// registered under bgid starting at buffer id startBid.
func NewProvideBuffers(group *BufferGroupRecord, bgid uint16, startBid uint16) *ProvideBuffersRecord {
	return &ProvideBuffersRecord{state: NewOwnerState(), group: group, bgid: bgid, startBid: startBid}
}

func (p *ProvideBuffersRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_PROVIDE_BUFFERS)
	sqe.Fd = int32(p.group.numBufs)
	sqe.Addr = uint64(uintptr(unsafe.Pointer(&p.group.allBufs[0])))
	sqe.Len = p.group.lenPerBuf
	sqe.Off = uint64(p.startBid)
	sqe.SetBufGroup(p.bgid)
	sqe.UserData = key
	p.group.ForceKernel()
	return nil
}

func (p *ProvideBuffersRecord) Owner() Owner { return p.state.Current() }
func (p *ProvideBuffersRecord) ForceKernel() { p.state.ForceKernel() }
