package bearer

import "github.com/yaws-rs/io-uring-utils/internal/sys"

// SubmissionFlags is a builder for the abstract submission-flag set,
// converted to the wire IOSQE_* bit pattern by ToWire.
type SubmissionFlags struct {
	drain        bool
	link         bool
	hardLink     bool
	async        bool
	bufferSelect bool
	skipSuccess  bool
}

// NewSubmissionFlags returns an empty flag set.
func NewSubmissionFlags() SubmissionFlags {
	return SubmissionFlags{}
}

// OnDrain requests IOSQE_IO_DRAIN.
func (f SubmissionFlags) OnDrain() SubmissionFlags { f.drain = true; return f }

// OnLink requests IOSQE_IO_LINK. Mutually exclusive with OnHardLink.
func (f SubmissionFlags) OnLink() SubmissionFlags { f.link = true; return f }

// OnHardLink requests IOSQE_IO_HARDLINK: like Link, but a failure in
// this SQE does not sever the chain. Mutually exclusive with OnLink.
func (f SubmissionFlags) OnHardLink() SubmissionFlags { f.hardLink = true; return f }

// OnAsync requests IOSQE_ASYNC.
func (f SubmissionFlags) OnAsync() SubmissionFlags { f.async = true; return f }

// OnBufferSelect requests IOSQE_BUFFER_SELECT.
func (f SubmissionFlags) OnBufferSelect() SubmissionFlags { f.bufferSelect = true; return f }

// OnSkipSuccess requests IOSQE_CQE_SKIP_SUCCESS.
func (f SubmissionFlags) OnSkipSuccess() SubmissionFlags { f.skipSuccess = true; return f }

// ToWire converts the abstract flag set to the wire IOSQE_* bit
// pattern. Link and HardLink are mutually exclusive: requesting both
// would produce an ambiguous wire encoding and fails with ErrInvalidFlags.
func (f SubmissionFlags) ToWire() (uint8, error) {
	if f.link && f.hardLink {
		return 0, ErrInvalidFlags
	}
	var bits uint8
	if f.drain {
		bits |= sys.IOSQE_IO_DRAIN
	}
	if f.link {
		bits |= sys.IOSQE_IO_LINK
	}
	if f.hardLink {
		bits |= sys.IOSQE_IO_HARDLINK
	}
	if f.async {
		bits |= sys.IOSQE_ASYNC
	}
	if f.bufferSelect {
		bits |= sys.IOSQE_BUFFER_SELECT
	}
	if f.skipSuccess {
		bits |= sys.IOSQE_CQE_SKIP_SUCCESS
	}
	return bits, nil
}
