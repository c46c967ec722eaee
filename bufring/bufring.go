//go:build linux

// Package bufring implements the provided-buffer ring: a user-mapped
// ring of fixed-size buffer descriptors registered with the kernel
// under a buffer-group id, from which the kernel picks a buffer on a
// receive-multishot operation and returns its id on completion.
package bufring

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

// ErrPageSizeUndivisible is returned when PerBufSize is not a multiple
// of PageSize and the checked constructor is used.
var ErrPageSizeUndivisible = errors.New("bufring: per-buf size is not a multiple of page size")

const defaultPageSize = 4096

// RingBufChoice validates and holds the sizing of a provided-buffer
// ring: BufCount buffers of PerBufSize bytes each.
type RingBufChoice struct {
	BufCount   uint16
	PerBufSize uint16
	PageSize   uint32
}

// WithDefaultPageSize validates perBufSize against the standard 4096
// page size.
func WithDefaultPageSize(bufCount, perBufSize uint16) (RingBufChoice, error) {
	return WithCustomPageSize(bufCount, perBufSize, defaultPageSize)
}

// WithCustomPageSize validates perBufSize is a multiple of pageSize.
func WithCustomPageSize(bufCount, perBufSize uint16, pageSize uint32) (RingBufChoice, error) {
	if bufCount == 0 || perBufSize == 0 {
		return RingBufChoice{}, fmt.Errorf("bufring: bufCount and perBufSize must be non-zero")
	}
	if uint32(perBufSize)%pageSize != 0 {
		return RingBufChoice{}, ErrPageSizeUndivisible
	}
	return RingBufChoice{BufCount: bufCount, PerBufSize: perBufSize, PageSize: pageSize}, nil
}

// WithUnchecked skips the page-size-divisibility validation.
func WithUnchecked(bufCount, perBufSize uint16) RingBufChoice {
	return RingBufChoice{BufCount: bufCount, PerBufSize: perBufSize, PageSize: defaultPageSize}
}

// Unregistered is an anonymously mapped provided-buffer ring not yet
// registered with any ring.
type Unregistered struct {
	choice   RingBufChoice
	ringMem  []byte // mmap'd ring entries
	bufMem   []byte // mmap'd logical buffer storage
	entries  []sys.Buf
	tail     *uint16
}

// New allocates the ring memory and the logical buffer storage for
// choice, without registering anything with the kernel yet.
func New(choice RingBufChoice) (*Unregistered, error) {
	entrySize := int(unsafe.Sizeof(sys.Buf{}))
	ringSize := int(choice.BufCount) * entrySize
	ringMem, err := syscall.Mmap(-1, 0, ringSize,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("bufring: anonymous mmap for ring entries: %w", err)
	}

	bufSize := int(choice.BufCount) * int(choice.PerBufSize)
	bufMem, err := syscall.Mmap(-1, 0, bufSize,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		syscall.Munmap(ringMem)
		return nil, fmt.Errorf("bufring: anonymous mmap for buffer storage: %w", err)
	}

	u := &Unregistered{choice: choice, ringMem: ringMem, bufMem: bufMem}
	u.entries = unsafe.Slice((*sys.Buf)(unsafe.Pointer(&ringMem[0])), choice.BufCount)
	// The kernel overlays the ring header on the first entry: the shared
	// tail cursor is the 16-bit word at offset 14, i.e. entries[0].Resv.
	u.tail = &u.entries[0].Resv

	for i := uint16(0); i < choice.BufCount; i++ {
		u.entries[i] = sys.Buf{
			Addr: uint64(uintptr(unsafe.Pointer(&bufMem[int(i)*int(choice.PerBufSize)]))),
			Len:  uint32(choice.PerBufSize),
			Bid:  i,
		}
	}
	// sync/atomic has no 16-bit store, so the tail is published with a
	// 32-bit store of the word it shares with entries[0].Bid (low half,
	// little-endian) and the tail (high half).
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&u.entries[0].Bid)), uint32(u.entries[0].Bid)|uint32(choice.BufCount)<<16)

	return u, nil
}

// Buffer returns the logical buffer at index i.
func (u *Unregistered) Buffer(i uint16) []byte {
	start := int(i) * int(u.choice.PerBufSize)
	return u.bufMem[start : start+int(u.choice.PerBufSize)]
}

// ringHandle is the minimal surface bearer.Bearer's Ring exposes that
// bufring needs: the raw ring fd for registration.
type ringHandle interface {
	Fd() int
}

// RegisterWithBearer registers this ring with the kernel under bgid.
// On failure it returns nil and the error; u is left unchanged and may
// be registered again.
func (u *Unregistered) RegisterWithBearer(ring ringHandle, bgid uint16) (*Registered, error) {
	addr := uintptr(unsafe.Pointer(&u.ringMem[0]))
	if err := sys.RegisterPBufRing(ring.Fd(), bgid, u.choice.BufCount, addr); err != nil {
		return nil, fmt.Errorf("bufring: register: %w", err)
	}
	return &Registered{u: u, bgid: bgid}, nil
}

// Close releases the ring and buffer memory mappings. Must only be
// called after Unregister, or before the ring was ever registered.
func (u *Unregistered) Close() error {
	err1 := syscall.Munmap(u.bufMem)
	err2 := syscall.Munmap(u.ringMem)
	if err1 != nil {
		return err1
	}
	return err2
}

// Registered is a provided-buffer ring currently registered with the
// kernel under a buffer-group id. Neither the ring memory nor the
// underlying byte pages may move while registered.
type Registered struct {
	u    *Unregistered
	bgid uint16
}

// Buffer returns the logical buffer at index i.
func (r *Registered) Buffer(i uint16) []byte { return r.u.Buffer(i) }

// BufGroupID returns the buffer-group id this ring is registered under.
func (r *Registered) BufGroupID() uint16 { return r.bgid }

// Unregister removes the kernel registration, returning the
// Unregistered value so it may be closed or re-registered.
func (r *Registered) Unregister(ring ringHandle) (*Unregistered, error) {
	if err := sys.UnregisterPBufRing(ring.Fd(), r.bgid); err != nil {
		return nil, fmt.Errorf("bufring: unregister: %w", err)
	}
	return r.u, nil
}
