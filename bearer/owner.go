// Package bearer implements the request/completion bookkeeping engine
// that sits between application code and a raw io_uring ring: slot
// stores for in-flight operations and auxiliary resources, a fixed-fd
// table, and the ownership discipline that keeps kernel-visible memory
// stable while the kernel holds a reference to it.
package bearer

import "fmt"

// Owner labels which side currently has the right to mutate or free a
// long-lived record's backing memory.
type Owner uint8

const (
	// OwnerCreated is the state of a freshly constructed record.
	OwnerCreated Owner = iota
	// OwnerRegistered denotes a record handed to a kernel registration
	// table but not yet part of any in-flight operation.
	OwnerRegistered
	// OwnerFilling denotes a record the user is actively writing into.
	OwnerFilling
	// OwnerTaken denotes a record internally borrowed for an in-flight
	// submission, between Take() and the SQ write completing.
	OwnerTaken
	// OwnerKernel denotes a record the kernel may read or write; it must
	// not be moved or freed.
	OwnerKernel
	// OwnerReturned denotes a record the kernel has released, pending
	// user inspection.
	OwnerReturned
	// OwnerReusable denotes a record whose slot may be reassigned.
	OwnerReusable
)

func (o Owner) String() string {
	switch o {
	case OwnerCreated:
		return "Created"
	case OwnerRegistered:
		return "Registered"
	case OwnerFilling:
		return "Filling"
	case OwnerTaken:
		return "Taken"
	case OwnerKernel:
		return "Kernel"
	case OwnerReturned:
		return "Returned"
	case OwnerReusable:
		return "Reusable"
	default:
		return "Unknown"
	}
}

// TakeError reports why a guarded Take transition was refused.
type TakeError struct {
	From Owner
}

func (e *TakeError) Error() string {
	switch e.From {
	case OwnerFilling:
		return "owner: pending filling by the user"
	case OwnerTaken:
		return "owner: already taken"
	case OwnerKernel:
		return "owner: kernel owns, cannot take"
	case OwnerReturned:
		return "owner: returned but not marked reusable"
	default:
		return fmt.Sprintf("owner: cannot take from state %s", e.From)
	}
}

// OwnerState is an embeddable Owner state machine enforcing the
// transition table: Created/Registered/Reusable -(Take)-> Taken;
// Filling/Taken/Kernel/Returned refuse Take with a TakeError.
type OwnerState struct {
	current Owner
}

// NewOwnerState constructs a state machine in OwnerCreated.
func NewOwnerState() OwnerState {
	return OwnerState{current: OwnerCreated}
}

// Current returns the current ownership state.
func (s *OwnerState) Current() Owner {
	return s.current
}

// Take attempts the guarded transition to OwnerTaken.
func (s *OwnerState) Take() error {
	switch s.current {
	case OwnerCreated, OwnerRegistered, OwnerReusable:
		s.current = OwnerTaken
		return nil
	default:
		return &TakeError{From: s.current}
	}
}

// ForceKernel unconditionally transitions to OwnerKernel. Calling it
// while already Kernel is a no-op, not an error, so multishot records
// can re-assert Kernel ownership on every completion that retains them.
func (s *OwnerState) ForceKernel() {
	s.current = OwnerKernel
}

// MarkReturned transitions to OwnerReturned, normally invoked once a
// completion for a Kernel-owned record has been observed.
func (s *OwnerState) MarkReturned() {
	s.current = OwnerReturned
}

// MarkReusable transitions to OwnerReusable.
func (s *OwnerState) MarkReusable() {
	s.current = OwnerReusable
}

// MarkCreated transitions back to OwnerCreated, e.g. after a Reusable
// slot has been re-initialized with a fresh payload.
func (s *OwnerState) MarkCreated() {
	s.current = OwnerCreated
}

// MarkFilling transitions to OwnerFilling while the user writes the
// record's payload.
func (s *OwnerState) MarkFilling() {
	s.current = OwnerFilling
}

// MarkRegistered transitions to OwnerRegistered.
func (s *OwnerState) MarkRegistered() {
	s.current = OwnerRegistered
}
