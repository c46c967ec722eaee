package bearer

import (
	"net"
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
	"golang.org/x/sys/unix"
)

// AcceptRecord backs a one-shot Accept operation. The sockaddr buffer
// is embedded in the record itself (never behind a second allocation)
// so its address is stable for as long as the record lives in the
// pending-operation Slot Store.
type AcceptRecord struct {
	state   OwnerState
	fixedFd uint32
	target  TargetFd
	v6      bool
	addr4   unix.RawSockaddrInet4
	addr6   unix.RawSockaddrInet6
	addrlen uint32
}

// NewAcceptIPv4 builds an Accept record for an IPv4 acceptor registered
// at fixed index fixedFd.
func NewAcceptIPv4(fixedFd uint32, target TargetFd) *AcceptRecord {
	return &AcceptRecord{
		state:   NewOwnerState(),
		fixedFd: fixedFd,
		target:  target,
		addrlen: uint32(unsafe.Sizeof(unix.RawSockaddrInet4{})),
	}
}

// NewAcceptIPv6 builds an Accept record for an IPv6 acceptor registered
// at fixed index fixedFd.
func NewAcceptIPv6(fixedFd uint32, target TargetFd) *AcceptRecord {
	return &AcceptRecord{
		state:   NewOwnerState(),
		fixedFd: fixedFd,
		target:  target,
		v6:      true,
		addrlen: uint32(unsafe.Sizeof(unix.RawSockaddrInet6{})),
	}
}

func (a *AcceptRecord) sockaddrPtr() unsafe.Pointer {
	if a.v6 {
		return unsafe.Pointer(&a.addr6)
	}
	return unsafe.Pointer(&a.addr4)
}

func (a *AcceptRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_ACCEPT)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(a.fixedFd)
	sqe.Addr = uint64(uintptr(a.sockaddrPtr()))
	sqe.SetAddr2(uint64(uintptr(unsafe.Pointer(&a.addrlen))))
	sqe.SetFileIndex(int32(a.target.fileIndex()))
	sqe.UserData = key
	return nil
}

func (a *AcceptRecord) Owner() Owner  { return a.state.Current() }
func (a *AcceptRecord) ForceKernel()  { a.state.ForceKernel() }

// Target returns the TargetFd this record was constructed with.
func (a *AcceptRecord) Target() TargetFd { return a.target }

// PeerAddr decodes the accepted peer address written in place by the
// kernel on completion. Returns nil if the kernel did not write a
// usable address (addrlen left at zero or family mismatch).
func (a *AcceptRecord) PeerAddr() *net.TCPAddr {
	if a.v6 {
		if a.addr6.Family != unix.AF_INET6 {
			return nil
		}
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.addr6.Addr[:])
		return &net.TCPAddr{IP: ip, Port: int(ntohs(a.addr6.Port))}
	}
	if a.addr4.Family != unix.AF_INET {
		return nil
	}
	ip := net.IPv4(a.addr4.Addr[0], a.addr4.Addr[1], a.addr4.Addr[2], a.addr4.Addr[3])
	return &net.TCPAddr{IP: ip, Port: int(ntohs(a.addr4.Port))}
}

func ntohs(port uint16) uint16 {
	return (port >> 8) | (port << 8)
}

// AcceptMultiRecord backs a multishot Accept operation: the kernel may
// complete the same record many times, one per accepted connection.
type AcceptMultiRecord struct {
	state           OwnerState
	fixedFd         uint32
	allocateIntoFdt bool
}

// NewAcceptMulti builds an AcceptMulti record for the acceptor at
// fixed index fixedFd. If allocateIntoFdt is set, accepted descriptors
// are placed into the fixed-file table automatically.
func NewAcceptMulti(fixedFd uint32, allocateIntoFdt bool) *AcceptMultiRecord {
	return &AcceptMultiRecord{state: NewOwnerState(), fixedFd: fixedFd, allocateIntoFdt: allocateIntoFdt}
}

func (a *AcceptMultiRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_ACCEPT)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(a.fixedFd)
	sqe.OpFlags = sys.IORING_ACCEPT_MULTISHOT
	if a.allocateIntoFdt {
		auto := sys.DestinationSlotAuto
		sqe.SetFileIndex(int32(auto))
	}
	sqe.UserData = key
	return nil
}

func (a *AcceptMultiRecord) Owner() Owner { return a.state.Current() }

// ForceKernel is sticky for multishot records: calling it while already
// Kernel-owned is a no-op.
func (a *AcceptMultiRecord) ForceKernel() {
	if a.state.Current() != OwnerKernel {
		a.state.ForceKernel()
	}
}

// FixedFd returns the acceptor's fixed index.
func (a *AcceptMultiRecord) FixedFd() uint32 { return a.fixedFd }
