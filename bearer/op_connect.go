package bearer

import (
	"net"
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
	"golang.org/x/sys/unix"
)

// ConnectRecord backs a one-shot Connect operation. The destination
// sockaddr is embedded inline so its address stays stable while the
// kernel reads it.
type ConnectRecord struct {
	state   OwnerState
	fixedFd uint32
	v6      bool
	addr4   unix.RawSockaddrInet4
	addr6   unix.RawSockaddrInet6
	addrlen uint32
}

// NewConnect builds a Connect record targeting addr over the acceptor
// at fixed index fixedFd.
func NewConnect(fixedFd uint32, addr *net.TCPAddr) *ConnectRecord {
	r := &ConnectRecord{state: NewOwnerState(), fixedFd: fixedFd}
	if ip4 := addr.IP.To4(); ip4 != nil {
		r.addr4.Family = unix.AF_INET
		r.addr4.Port = htons(uint16(addr.Port))
		copy(r.addr4.Addr[:], ip4)
		r.addrlen = uint32(unsafe.Sizeof(r.addr4))
	} else {
		r.v6 = true
		r.addr6.Family = unix.AF_INET6
		r.addr6.Port = htons(uint16(addr.Port))
		copy(r.addr6.Addr[:], addr.IP.To16())
		r.addrlen = uint32(unsafe.Sizeof(r.addr6))
	}
	return r
}

func htons(port uint16) uint16 { return ntohs(port) }

func (c *ConnectRecord) sockaddrPtr() unsafe.Pointer {
	if c.v6 {
		return unsafe.Pointer(&c.addr6)
	}
	return unsafe.Pointer(&c.addr4)
}

func (c *ConnectRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_CONNECT)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(c.fixedFd)
	sqe.Addr = uint64(uintptr(c.sockaddrPtr()))
	sqe.Off = uint64(c.addrlen)
	sqe.UserData = key
	return nil
}

func (c *ConnectRecord) Owner() Owner { return c.state.Current() }
func (c *ConnectRecord) ForceKernel() { c.state.ForceKernel() }
