package bearer

import "github.com/yaws-rs/io-uring-utils/internal/sys"

// FdKind labels the role a registered file descriptor plays.
type FdKind uint8

const (
	FdKindEpollCtl FdKind = iota
	FdKindAcceptor
	FdKindReceiver
	FdKindSender
	FdKindReceiveSend
)

// RegisteredFd is one entry of the Fixed-FD Table.
type RegisteredFd struct {
	Kind  FdKind
	RawFd int32
}

// FixedFdTable holds up to Capacity() registered descriptors, indexed
// by a dense "fixed index" the kernel also uses to address them.
type FixedFdTable struct {
	entries  []RegisteredFd
	occupied []bool
	n        int
}

// NewFixedFdTable constructs a table with capacity exactly c.
func NewFixedFdTable(c uint32) *FixedFdTable {
	return &FixedFdTable{
		entries:  make([]RegisteredFd, c),
		occupied: make([]bool, c),
	}
}

// Capacity returns the table's fixed capacity.
func (t *FixedFdTable) Capacity() uint32 { return uint32(len(t.entries)) }

// Occupied returns the number of currently registered descriptors.
func (t *FixedFdTable) Occupied() uint32 { return uint32(t.n) }

// Add inserts entry into the first free slot, returning its fixed
// index. Fails with ErrFdRegisterFull if the table has no free slot.
func (t *FixedFdTable) Add(entry RegisteredFd) (uint32, error) {
	for i, occ := range t.occupied {
		if !occ {
			t.entries[i] = entry
			t.occupied[i] = true
			t.n++
			return uint32(i), nil
		}
	}
	return 0, ErrFdRegisterFull
}

// Get returns the entry at fixedIndex, or ok==false if unoccupied or
// out of range.
func (t *FixedFdTable) Get(fixedIndex uint32) (*RegisteredFd, bool) {
	if fixedIndex >= uint32(len(t.entries)) || !t.occupied[fixedIndex] {
		return nil, false
	}
	return &t.entries[fixedIndex], true
}

// Remove frees fixedIndex, making it eligible for a future Add.
func (t *FixedFdTable) Remove(fixedIndex uint32) bool {
	if fixedIndex >= uint32(len(t.entries)) || !t.occupied[fixedIndex] {
		return false
	}
	t.occupied[fixedIndex] = false
	t.entries[fixedIndex] = RegisteredFd{}
	t.n--
	return true
}

// RegisterRecv is a convenience wrapper around Add for receive-capable
// descriptors.
func (t *FixedFdTable) RegisterRecv(raw int32) (uint32, error) {
	return t.Add(RegisteredFd{Kind: FdKindReceiver, RawFd: raw})
}

// RegisterAcceptor is a convenience wrapper around Add for acceptor
// descriptors (listening sockets).
func (t *FixedFdTable) RegisterAcceptor(raw int32) (uint32, error) {
	return t.Add(RegisteredFd{Kind: FdKindAcceptor, RawFd: raw})
}

// snapshot builds the length-Capacity() slice the kernel expects for a
// bulk commit: occupied slots carry the raw descriptor, free slots
// carry the sentinel -1.
func (t *FixedFdTable) snapshot() []int32 {
	out := make([]int32, len(t.entries))
	for i, occ := range t.occupied {
		if occ {
			out[i] = t.entries[i].RawFd
		} else {
			out[i] = -1
		}
	}
	return out
}

// CommitBulk registers the entire table with the kernel in one call.
// Must run while SQ and CQ are quiescent; this is the initialization
// path.
func (t *FixedFdTable) CommitBulk(fd int) error {
	snap := t.snapshot()
	if err := sys.RegisterFiles(fd, snap); err != nil {
		return &RegisterHandlesError{Err: err}
	}
	return nil
}

// CommitSparse swaps the single entry at fixedIndex with the kernel,
// without touching the rest of the table. May run during steady state.
func (t *FixedFdTable) CommitSparse(fd int, fixedIndex uint32) error {
	if fixedIndex >= uint32(len(t.entries)) {
		return &FdNotRegisteredError{Index: fixedIndex}
	}
	var raw int32 = -1
	if t.occupied[fixedIndex] {
		raw = t.entries[fixedIndex].RawFd
	}
	if err := sys.RegisterFilesUpdate(fd, fixedIndex, []int32{raw}); err != nil {
		return &RegisterHandlesError{Err: err}
	}
	return nil
}
