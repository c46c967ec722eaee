package bearer

import (
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
	"golang.org/x/sys/unix"
)

// EpollCtlOp names the epoll_ctl operation requested.
type EpollCtlOp int32

const (
	EpollCtlAdd EpollCtlOp = unix.EPOLL_CTL_ADD
	EpollCtlDel EpollCtlOp = unix.EPOLL_CTL_DEL
	EpollCtlMod EpollCtlOp = unix.EPOLL_CTL_MOD
)

// EpollCtlRecord backs an EpollCtl operation. Its event payload is
// embedded inline so the kernel can read it directly at submission
// time; when multishot (repeated Add-then-rearm pattern at a higher
// level) the record must persist across completions.
type EpollCtlRecord struct {
	state       OwnerState
	epollFixed  uint32
	targetFd    int32
	op          EpollCtlOp
	event       unix.EpollEvent
	multishot   bool
}

// NewEpollCtl builds an EpollCtl record: epollFixed is the epoll
// control descriptor's fixed index, targetFd is the raw descriptor
// being added/removed/modified, and event is read by the kernel at
// submission time.
func NewEpollCtl(epollFixed uint32, targetFd int32, op EpollCtlOp, event unix.EpollEvent, multishot bool) *EpollCtlRecord {
	return &EpollCtlRecord{
		state:      NewOwnerState(),
		epollFixed: epollFixed,
		targetFd:   targetFd,
		op:         op,
		event:      event,
		multishot:  multishot,
	}
}

func (e *EpollCtlRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_EPOLL_CTL)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(e.epollFixed)
	sqe.Len = uint32(e.op)
	sqe.Addr = uint64(e.targetFd)
	sqe.Off = uint64(uintptr(unsafe.Pointer(&e.event)))
	sqe.UserData = key
	return nil
}

func (e *EpollCtlRecord) Owner() Owner { return e.state.Current() }

func (e *EpollCtlRecord) ForceKernel() {
	if e.multishot {
		if e.state.Current() != OwnerKernel {
			e.state.ForceKernel()
		}
		return
	}
	e.state.ForceKernel()
}

// TargetFd returns the raw descriptor this record controls.
func (e *EpollCtlRecord) TargetFd() int32 { return e.targetFd }
