package bearer

import "github.com/yaws-rs/io-uring-utils/internal/sys"

// TargetFdKind discriminates the TargetFd sum type.
type TargetFdKind uint8

const (
	// TargetUnregistered requests no fixed-file placement; the kernel
	// returns a regular descriptor in the completion result.
	TargetUnregistered TargetFdKind = iota
	// TargetAutoRegistered asks the kernel to pick a free fixed slot.
	TargetAutoRegistered
	// TargetManualRegistered pins the descriptor to a caller-chosen slot.
	TargetManualRegistered
)

// TargetFd selects how a newly created descriptor (e.g. from Socket or
// Accept) is placed into the kernel's fixed-file table.
type TargetFd struct {
	Kind TargetFdKind
	Slot uint32 // only meaningful when Kind == TargetManualRegistered
}

// Unregistered returns the Unregistered variant.
func Unregistered() TargetFd { return TargetFd{Kind: TargetUnregistered} }

// AutoRegistered returns the AutoRegistered variant.
func AutoRegistered() TargetFd { return TargetFd{Kind: TargetAutoRegistered} }

// ManualRegistered returns the ManualRegistered variant pinned to slot.
func ManualRegistered(slot uint32) TargetFd {
	return TargetFd{Kind: TargetManualRegistered, Slot: slot}
}

// fileIndex maps the TargetFd to the kernel's one-shot destination-slot
// wire value: 0 means "no fixed placement requested".
func (t TargetFd) fileIndex() uint32 {
	switch t.Kind {
	case TargetAutoRegistered:
		return sys.DestinationSlotAuto
	case TargetManualRegistered:
		// Kernel file-index wire encoding is 1-based; slot 0 is encoded
		// as file-index 1.
		return t.Slot + 1
	default:
		return 0
	}
}
