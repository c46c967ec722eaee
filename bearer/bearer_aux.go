//go:build linux

package bearer

import "net"

// CreateBuffers allocates a Buffer-Group Record of numBufs buffers of
// lenPerBuf bytes each, with owner Created, and returns its store id.
func (b *Bearer) CreateBuffers(numBufs, lenPerBuf uint32) (uint64, error) {
	if b.buffers == nil {
		return 0, &InvalidParameterError{Where: "CreateBuffers", Why: "bearer constructed with zero buffer capacity"}
	}
	rec, err := NewBufferGroupRecord(numBufs, lenPerBuf)
	if err != nil {
		return 0, err
	}
	return b.buffers.TakeNextWith(*rec)
}

// bufferGroup looks up buffer group id, reporting BufferNotExistError
// uniformly whether the store is absent (zero capacity) or the id is
// simply stale.
func (b *Bearer) bufferGroup(id uint64) (*BufferGroupRecord, error) {
	if b.buffers == nil {
		return nil, &BufferNotExistError{ID: id}
	}
	rec, ok := b.buffers.Get(id)
	if !ok {
		return nil, &BufferNotExistError{ID: id}
	}
	return rec, nil
}

// DestroyBuffers refuses if the group is Kernel-owned; otherwise marks
// the slot reusable.
func (b *Bearer) DestroyBuffers(id uint64) error {
	rec, err := b.bufferGroup(id)
	if err != nil {
		return err
	}
	if rec.Owner() == OwnerKernel {
		return &BufferNoOwnershipError{ID: id}
	}
	return b.buffers.MarkReusable(id)
}

// ReclaimBuffers builds and pushes a RemoveBuffers operation, asking
// the kernel to drop numBufs provided buffers registered under bgid
// for group id. Fails unless the group is currently Kernel-owned: a
// group the kernel does not hold has nothing to reclaim.
func (b *Bearer) ReclaimBuffers(id uint64, bgid uint16, numBufs uint16) (uint64, error) {
	rec, err := b.bufferGroup(id)
	if err != nil {
		return 0, err
	}
	if rec.Owner() != OwnerKernel {
		return 0, &BufferNotKernelOwnedError{ID: id}
	}
	return b.PushOpTyped(NewRemoveBuffers(rec, bgid, numBufs))
}

// ProvideBuffers builds a ProvideBuffers operation over buffer group
// id, registered under bgid starting at buffer id bid, and pushes it.
// The Buffer-Group Record transitions to Kernel ownership on push.
func (b *Bearer) ProvideBuffers(id uint64, bgid uint16, bid uint16) (uint64, error) {
	rec, err := b.bufferGroup(id)
	if err != nil {
		return 0, err
	}
	op := NewProvideBuffers(rec, bgid, bid)
	return b.PushOpTyped(op)
}

// ViewBufferSelect returns a slice of the selectIdx-th buffer in group
// id, truncated to length bytes. The caller attests the kernel is not
// currently writing that buffer.
func (b *Bearer) ViewBufferSelect(id uint64, selectIdx uint32, length uint32) ([]byte, error) {
	rec, err := b.bufferGroup(id)
	if err != nil {
		return nil, err
	}
	return rec.ViewSelect(selectIdx, length)
}

// CreateFutexAtomic allocates a futex-atomic record owning its own
// 32-bit word and returns its store id.
func (b *Bearer) CreateFutexAtomic() (uint64, error) {
	if b.futexes == nil {
		return 0, &InvalidParameterError{Where: "CreateFutexAtomic", Why: "bearer constructed with zero futex capacity"}
	}
	return b.futexes.TakeNextWith(*NewOwnedFutexAtomic())
}

// SupplyFutexAtomicRaw wraps an externally supplied address. The
// caller attests the memory outlives every in-flight FutexWait built
// against it.
func (b *Bearer) SupplyFutexAtomicRaw(addr *uint32) (uint64, error) {
	if b.futexes == nil {
		return 0, &InvalidParameterError{Where: "SupplyFutexAtomicRaw", Why: "bearer constructed with zero futex capacity"}
	}
	return b.futexes.TakeNextWith(*NewUnsafeFutexAtomic(addr))
}

// futexAtomic looks up futex-atomic id, reporting FutexNotExistError
// uniformly whether the store is absent (zero capacity) or the id is
// simply stale.
func (b *Bearer) futexAtomic(id uint64) (*FutexAtomicRecord, error) {
	if b.futexes == nil {
		return nil, &FutexNotExistError{ID: id}
	}
	rec, ok := b.futexes.Get(id)
	if !ok {
		return nil, &FutexNotExistError{ID: id}
	}
	return rec, nil
}

// GetFutexHandle returns the shared-lifetime handle to the atomic at
// id. Only valid for records created via CreateFutexAtomic.
func (b *Bearer) GetFutexHandle(id uint64) (*uint32, error) {
	rec, err := b.futexAtomic(id)
	if err != nil {
		return nil, err
	}
	handle, ok := rec.Handle()
	if !ok {
		return nil, &BufferTakeError{Reason: "futex atomic was supplied externally, has no owned handle"}
	}
	return handle, nil
}

// RemoveFutexAtomic refuses if the record is Kernel-owned; otherwise
// marks the slot reusable.
func (b *Bearer) RemoveFutexAtomic(id uint64) error {
	rec, err := b.futexAtomic(id)
	if err != nil {
		return err
	}
	if rec.Owner() == OwnerKernel {
		return &FutexNoOwnershipError{ID: id}
	}
	return b.futexes.MarkReusable(id)
}

// AddFutexWait builds a FutexWait operation over the atomic at id,
// pushes it, and transitions the atomic record to Kernel ownership.
func (b *Bearer) AddFutexWait(id uint64, bitset uint64, expected uint32) (uint64, error) {
	rec, err := b.futexAtomic(id)
	if err != nil {
		return 0, err
	}
	op := NewFutexWait(rec, bitset, expected)
	return b.PushOpTyped(op)
}

// validateTarget refuses a ManualRegistered target whose slot is
// already occupied in the fixed-fd table, rather than letting the
// kernel reject it at submission time.
func (b *Bearer) validateTarget(target TargetFd) error {
	if target.Kind != TargetManualRegistered {
		return nil
	}
	if _, occupied := b.fds.Get(target.Slot); occupied {
		return &InvalidTargetFdError{Slot: target.Slot}
	}
	return nil
}

// PushSocket builds and pushes a Socket operation.
func (b *Bearer) PushSocket(domain, typ, protocol int32, target TargetFd) (uint64, error) {
	if err := b.validateTarget(target); err != nil {
		return 0, err
	}
	return b.PushOpTyped(NewSocket(domain, typ, protocol, target))
}

// PushConnect builds and pushes a Connect operation over the acceptor
// at fixed index fixedFd.
func (b *Bearer) PushConnect(fixedFd uint32, addr *net.TCPAddr) (uint64, error) {
	return b.PushOpTyped(NewConnect(fixedFd, addr))
}

// PushConnectFlags is PushConnect with explicit SubmissionFlags, used
// to chain e.g. a preceding PushSocket via Link/HardLink.
func (b *Bearer) PushConnectFlags(fixedFd uint32, addr *net.TCPAddr, flags SubmissionFlags) (uint64, error) {
	return b.PushOpTypedFlags(NewConnect(fixedFd, addr), flags)
}

// AddAcceptIPv4 validates target and pushes a one-shot IPv4 Accept
// record on the listener at fixed index fixedFd.
func (b *Bearer) AddAcceptIPv4(fixedFd uint32, target TargetFd) (uint64, error) {
	if err := b.validateTarget(target); err != nil {
		return 0, err
	}
	return b.PushOpTyped(NewAcceptIPv4(fixedFd, target))
}

// AddAcceptIPv6 validates target and pushes a one-shot IPv6 Accept
// record on the listener at fixed index fixedFd.
func (b *Bearer) AddAcceptIPv6(fixedFd uint32, target TargetFd) (uint64, error) {
	if err := b.validateTarget(target); err != nil {
		return 0, err
	}
	return b.PushOpTyped(NewAcceptIPv6(fixedFd, target))
}

// PushAcceptMulti builds and pushes a multishot Accept operation over
// the acceptor at fixed index fixedFd.
func (b *Bearer) PushAcceptMulti(fixedFd uint32, allocateIntoFdt bool) (uint64, error) {
	return b.PushOpTyped(NewAcceptMulti(fixedFd, allocateIntoFdt))
}

// AddRecv builds and pushes a one-shot Recv operation reading into the
// singleton buffer owned by buffer group id.
func (b *Bearer) AddRecv(fixedFd uint32, bufGroupID uint64) (uint64, error) {
	group, err := b.bufferGroup(bufGroupID)
	if err != nil {
		return 0, err
	}
	op, err := NewRecv(fixedFd, group)
	if err != nil {
		return 0, err
	}
	return b.PushOpTyped(op)
}

// AddRecvMulti builds and pushes a multishot Recv operation selecting
// buffers from bgid.
func (b *Bearer) AddRecvMulti(fixedFd uint32, bgid uint16) (uint64, error) {
	return b.PushOpTyped(NewRecvMulti(fixedFd, bgid))
}

// AddSendSingleBuf builds and pushes a zero-copy Send operation
// sourced from the singleton buffer owned by buffer group id.
func (b *Bearer) AddSendSingleBuf(fixedFd uint32, bufGroupID uint64) (uint64, error) {
	group, err := b.bufferGroup(bufGroupID)
	if err != nil {
		return 0, err
	}
	op, err := NewSendZeroCopyFixed(fixedFd, group)
	if err != nil {
		return 0, err
	}
	return b.PushOpTyped(op)
}

// PushEpollCtl builds and pushes an EpollCtl operation.
func (b *Bearer) PushEpollCtl(op *EpollCtlRecord) (uint64, error) {
	return b.PushOpTyped(op)
}
