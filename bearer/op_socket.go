package bearer

import "github.com/yaws-rs/io-uring-utils/internal/sys"

// SocketRecord backs a one-shot Socket operation: create a socket and
// optionally place its descriptor directly into the fixed-file table.
type SocketRecord struct {
	state    OwnerState
	domain   int32
	typ      int32
	protocol int32
	target   TargetFd
}

// NewSocket builds a Socket record for the given domain/type/protocol,
// placed according to target.
func NewSocket(domain, typ, protocol int32, target TargetFd) *SocketRecord {
	return &SocketRecord{state: NewOwnerState(), domain: domain, typ: typ, protocol: protocol, target: target}
}

func (s *SocketRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_SOCKET)
	sqe.Fd = s.domain
	sqe.Off = uint64(uint32(s.typ))
	sqe.Len = uint32(s.protocol)
	sqe.SetFileIndex(int32(s.target.fileIndex()))
	sqe.UserData = key
	return nil
}

func (s *SocketRecord) Owner() Owner  { return s.state.Current() }
func (s *SocketRecord) ForceKernel()  { s.state.ForceKernel() }
func (s *SocketRecord) Target() TargetFd { return s.target }
