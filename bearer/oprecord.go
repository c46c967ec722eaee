package bearer

import "github.com/yaws-rs/io-uring-utils/internal/sys"

// OpRecord is implemented by every operation-kind variant: the
// built-ins (Accept, AcceptMulti, Connect, Socket, EpollCtl,
// ProvideBuffers, FutexWait, Recv, RecvMulti, SendZeroCopy) and the
// open External escape hatch. It is the capability interface the
// submission-write path dispatches through.
type OpRecord interface {
	// BuildSQEntry fills sqe with this record's opcode-specific fields
	// and stamps it with key as the 64-bit user-data.
	BuildSQEntry(sqe *sys.SQE, key uint64) error
	// Owner returns the record's current ownership state.
	Owner() Owner
	// ForceKernel unconditionally transitions the record to Kernel
	// ownership. For multishot variants this is sticky: calling it again
	// while already Kernel is a no-op.
	ForceKernel()
}

// Pluggable is implemented by a user-defined operation kind that wants
// the generic PushOp path (as opposed to a typed Push* wrapper).
type Pluggable interface {
	// Submission packages the plug-in's arguments into an OpRecord,
	// potentially failing with the plug-in's own error (surfaced by the
	// Bearer wrapped as *OpError).
	Submission() (OpRecord, error)
}

// SubmissionRecordStatus is returned by a HandleCompletions callback to
// decide whether the Bearer should release the completed record's slot.
type SubmissionRecordStatus uint8

const (
	// Retain keeps the record's slot occupied; required for multishot
	// operations that expect further completions.
	Retain SubmissionRecordStatus = iota
	// Forget releases the record's slot. The caller attests the kernel
	// will not reference this record again.
	Forget
)

// External adapts an arbitrary user-defined payload satisfying the
// plug-in capability interface into the closed OpRecord set.
type External struct {
	Payload interface {
		BuildSQEntry(sqe *sys.SQE, key uint64) error
		Owner() Owner
		ForceKernel()
	}
}

func (e External) BuildSQEntry(sqe *sys.SQE, key uint64) error { return e.Payload.BuildSQEntry(sqe, key) }
func (e External) Owner() Owner                                { return e.Payload.Owner() }
func (e External) ForceKernel()                                { e.Payload.ForceKernel() }
