package bearer

import (
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// SendZeroCopyRecord backs a zero-copy Send, sourced from either the
// taken singleton buffer of a buffer group (the Fixed variant) or an
// unsafely supplied raw pointer (the UnsafeRef variant).
type SendZeroCopyRecord struct {
	state   OwnerState
	fixedFd uint32

	// Fixed variant.
	taken *TakenImmutableBuffer

	// UnsafeRef variant.
	rawPtr unsafe.Pointer
	rawLen uint32
}

// NewSendZeroCopyFixed builds a SendZeroCopy record sourced from the
// singleton buffer owned by group, targeting the sender at fixed index
// fixedFd.
func NewSendZeroCopyFixed(fixedFd uint32, group *BufferGroupRecord) (*SendZeroCopyRecord, error) {
	taken, err := group.TakeOneImmutable()
	if err != nil {
		return nil, err
	}
	return &SendZeroCopyRecord{state: NewOwnerState(), fixedFd: fixedFd, taken: taken}, nil
}

// NewSendZeroCopyRaw builds a SendZeroCopy record sourced from an
// unsafely supplied buffer. The caller attests buf outlives the
// in-flight operation and is not moved.
func NewSendZeroCopyRaw(fixedFd uint32, buf []byte) *SendZeroCopyRecord {
	r := &SendZeroCopyRecord{state: NewOwnerState(), fixedFd: fixedFd, rawLen: uint32(len(buf))}
	if len(buf) > 0 {
		r.rawPtr = unsafe.Pointer(&buf[0])
	}
	return r
}

func (s *SendZeroCopyRecord) BuildSQEntry(sqe *sys.SQE, key uint64) error {
	sqe.Opcode = uint8(sys.IORING_OP_SEND_ZC)
	sqe.Flags |= sys.IOSQE_FIXED_FILE
	sqe.Fd = int32(s.fixedFd)

	if s.taken != nil {
		buf := s.taken.Bytes()
		if len(buf) > 0 {
			sqe.Addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
		}
		// Real buffer length, not a hardcoded placeholder: the source
		// this design derives from hardcoded 2 here, which was a bug.
		sqe.Len = uint32(len(buf))
	} else {
		sqe.Addr = uint64(uintptr(s.rawPtr))
		sqe.Len = s.rawLen
	}
	sqe.UserData = key
	return nil
}

func (s *SendZeroCopyRecord) Owner() Owner { return s.state.Current() }
func (s *SendZeroCopyRecord) ForceKernel() { s.state.ForceKernel() }
