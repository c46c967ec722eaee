package bearer

// FutexAtomicRecord is either an owned 32-bit atomic reachable via a
// shared-lifetime handle, or an unsafely referenced external address.
// The referenced address must remain valid and unmoved while the
// record is in state Kernel.
type FutexAtomicRecord struct {
	state   OwnerState
	owned   *uint32 // non-nil when this record owns its storage
	extRef  *uint32 // non-nil when wrapping an externally supplied address
}

// NewOwnedFutexAtomic allocates a futex-atomic record owning its own
// 32-bit word.
func NewOwnedFutexAtomic() *FutexAtomicRecord {
	var v uint32
	return &FutexAtomicRecord{state: NewOwnerState(), owned: &v}
}

// NewUnsafeFutexAtomic wraps an externally supplied address. The
// caller attests the memory outlives every in-flight FutexWait built
// against it.
func NewUnsafeFutexAtomic(addr *uint32) *FutexAtomicRecord {
	return &FutexAtomicRecord{state: NewOwnerState(), extRef: addr}
}

func (f *FutexAtomicRecord) Owner() Owner { return f.state.Current() }

// ForceKernel unconditionally moves the record into Kernel ownership.
func (f *FutexAtomicRecord) ForceKernel() { f.state.ForceKernel() }

// MarkReusable releases the record back to Reusable.
func (f *FutexAtomicRecord) MarkReusable() { f.state.MarkReusable() }

// Addr returns the address of the backing 32-bit atomic.
func (f *FutexAtomicRecord) Addr() *uint32 {
	if f.owned != nil {
		return f.owned
	}
	return f.extRef
}

// Handle returns the shared-lifetime handle to the atomic, only valid
// for records created via NewOwnedFutexAtomic.
func (f *FutexAtomicRecord) Handle() (*uint32, bool) {
	if f.owned == nil {
		return nil, false
	}
	return f.owned, true
}
