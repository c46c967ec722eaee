//go:build linux

package bearer

import (
	"fmt"

	iouring "github.com/yaws-rs/io-uring-utils"
	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// pendingEntry holds an OpRecord in the pending-operation store. The
// SubmissionFlags it was pushed with are applied to the SQE at push
// time and are not kept here.
type pendingEntry struct {
	record OpRecord
}

// Bearer is the controlling object: it owns the ring handle, the
// pending-operation Slot Store, the Fixed-FD Table, the buffer-group
// Slot Store, and the futex-atomic Slot Store.
type Bearer struct {
	ring *iouring.Ring

	pending *SlotStore[pendingEntry]
	fds     *FixedFdTable
	buffers *SlotStore[BufferGroupRecord]
	futexes *SlotStore[FutexAtomicRecord]
}

// WithCapacity constructs a new Ring with SQ depth caps.CoreQueue and a
// Bearer over it, sized per the remaining capacity fields.
func WithCapacity(caps Capacity, opts ...iouring.Option) (*Bearer, error) {
	if !isPowerOfTwo(caps.CoreQueue) {
		return nil, &InvalidParameterError{Where: "WithCapacity", Why: "CoreQueue must be a power of two", BadValue: caps.CoreQueue}
	}
	ring, err := iouring.New(caps.CoreQueue, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIoUringCreate, err)
	}
	return FromRing(ring, caps)
}

// FromRing adapts an already-constructed Ring into a Bearer, sized per
// caps's non-CoreQueue fields.
func FromRing(ring *iouring.Ring, caps Capacity) (*Bearer, error) {
	pending, err := NewSlotStore[pendingEntry](caps.PendingCompletions)
	if err != nil {
		return nil, err
	}
	var buffers *SlotStore[BufferGroupRecord]
	if caps.Buffers > 0 {
		buffers, err = NewSlotStore[BufferGroupRecord](caps.Buffers)
		if err != nil {
			return nil, err
		}
	}
	var futexes *SlotStore[FutexAtomicRecord]
	if caps.Futexes > 0 {
		futexes, err = NewSlotStore[FutexAtomicRecord](caps.Futexes)
		if err != nil {
			return nil, err
		}
	}
	return &Bearer{
		ring:    ring,
		pending: pending,
		fds:     NewFixedFdTable(caps.RegisteredFd),
		buffers: buffers,
		futexes: futexes,
	}, nil
}

// Ring returns the underlying Ring transport.
func (b *Bearer) Ring() *iouring.Ring { return b.ring }

// Fds returns the Fixed-FD Table.
func (b *Bearer) Fds() *FixedFdTable { return b.fds }

// Close releases the underlying ring.
func (b *Bearer) Close() error { return b.ring.Close() }

// PushOpTyped installs record into the pending-operation store and
// writes its SQ entry, skipping the plug-in Submission() step.
func (b *Bearer) PushOpTyped(record OpRecord) (uint64, error) {
	key, err := b.pending.ReserveNext()
	if err != nil {
		return 0, ErrSlabbable
	}
	if err := b.pending.Install(key, pendingEntry{record: record}); err != nil {
		return 0, ErrSlabBugSetGet
	}
	if err := b.pushToCompletion(key, NewSubmissionFlags()); err != nil {
		_ = b.pending.MarkReusable(key)
		return 0, err
	}
	return key, nil
}

// PushOpTypedFlags is PushOpTyped with an explicit SubmissionFlags set.
func (b *Bearer) PushOpTypedFlags(record OpRecord, flags SubmissionFlags) (uint64, error) {
	key, err := b.pending.ReserveNext()
	if err != nil {
		return 0, ErrSlabbable
	}
	if err := b.pending.Install(key, pendingEntry{record: record}); err != nil {
		return 0, ErrSlabBugSetGet
	}
	if err := b.pushToCompletion(key, flags); err != nil {
		_ = b.pending.MarkReusable(key)
		return 0, err
	}
	return key, nil
}

// PushOp packages op via its plug-in Submission() method, then pushes
// the resulting OpRecord exactly as PushOpTyped does.
func (b *Bearer) PushOp(op Pluggable) (uint64, error) {
	record, err := op.Submission()
	if err != nil {
		return 0, &OpError{Err: err}
	}
	return b.PushOpTyped(record)
}

// pushToCompletion is the submission-write path: look up the record,
// refuse if Kernel-owned, force it to Kernel, build its SQ entry
// stamped with key, apply flags, and push to the SQ.
func (b *Bearer) pushToCompletion(key uint64, flags SubmissionFlags) error {
	entry, ok := b.pending.Get(key)
	if !ok {
		return ErrSlabBugSetGet
	}
	if entry.record.Owner() == OwnerKernel {
		return &InvalidOwnershipError{Owner: OwnerKernel, Key: key}
	}
	entry.record.ForceKernel()

	sqe := b.ring.GetSQE()
	if sqe == nil {
		return ErrSubmissionPush
	}
	if err := entry.record.BuildSQEntry(sqe, key); err != nil {
		return err
	}
	wire, err := flags.ToWire()
	if err != nil {
		return err
	}
	sqe.Flags |= wire
	sqe.UserData = key
	return nil
}

// Submit flushes the SQ to the kernel.
func (b *Bearer) Submit() (int, error) {
	n, err := b.ring.Submit()
	if err != nil {
		return n, &SubmissionError{Err: err}
	}
	return n, nil
}

// SubmitAndWait flushes the SQ and blocks until at least n completions
// are available.
func (b *Bearer) SubmitAndWait(n uint32) (int, error) {
	count, err := b.ring.SubmitAndWait(n)
	if err != nil {
		return count, &SubmissionError{Err: err}
	}
	return count, nil
}

// Completions drains every available CQE with read-only access to the
// backing record, implicitly treating each as Retain.
func (b *Bearer) Completions(user any, fn func(user any, cqe CQE, record OpRecord)) int {
	return b.HandleCompletions(user, func(user any, cqe CQE, record OpRecord) SubmissionRecordStatus {
		fn(user, cqe, record)
		return Retain
	})
}

// CQE is the decoded shape of a completion-queue entry handed to drain
// callbacks.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// HasMore reports whether more completions are expected for this
// CQE's user-data (multishot operations).
func (c CQE) HasMore() bool { return c.Flags&sys.IORING_CQE_F_MORE != 0 }

// BufID extracts the selected buffer id when IORING_CQE_F_BUFFER is set.
func (c CQE) BufID() uint16 { return uint16(c.Flags >> 16) }

// HandleCompletions drains every available CQE. For each, it looks up
// the record by the CQE's user-data key, invokes fn, and releases the
// slot (MarkReusable) if fn returns Forget. Entries whose record is
// already absent (freed on a prior Forget) are silently skipped. The
// caller attests that returning Forget means the kernel will not
// reference that record again; this is required because multishot
// operations expect Retain until the kernel signals termination.
func (b *Bearer) HandleCompletions(user any, fn func(user any, cqe CQE, record OpRecord) SubmissionRecordStatus) int {
	return b.ring.ForEachCQE(func(userData uint64, res int32, flags uint32) bool {
		entry, ok := b.pending.Get(userData)
		if !ok {
			return true
		}
		status := fn(user, CQE{UserData: userData, Res: res, Flags: flags}, entry.record)
		if status == Forget {
			_ = b.pending.MarkReusable(userData)
		}
		return true
	})
}
