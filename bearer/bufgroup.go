package bearer

// BufferGroupRecord owns a single contiguous byte region partitioned
// into NumBufs equal-sized slices of LenPerBuf bytes each.
type BufferGroupRecord struct {
	state      OwnerState
	allBufs    []byte
	lenPerBuf  uint32
	numBufs    uint32
}

// NewBufferGroupRecord allocates a contiguous region of numBufs *
// lenPerBuf bytes, split into numBufs equal slices.
func NewBufferGroupRecord(numBufs uint32, lenPerBuf uint32) (*BufferGroupRecord, error) {
	if numBufs == 0 || lenPerBuf == 0 {
		return nil, &InvalidParameterError{Where: "NewBufferGroupRecord", Why: "numBufs and lenPerBuf must be non-zero"}
	}
	return &BufferGroupRecord{
		state:     NewOwnerState(),
		allBufs:   make([]byte, uint64(numBufs)*uint64(lenPerBuf)),
		lenPerBuf: lenPerBuf,
		numBufs:   numBufs,
	}, nil
}

func (b *BufferGroupRecord) Owner() Owner { return b.state.Current() }

// NumBufs returns the number of equal-sized buffers in the group.
func (b *BufferGroupRecord) NumBufs() uint32 { return b.numBufs }

// LenPerBuf returns the size of each buffer in the group.
func (b *BufferGroupRecord) LenPerBuf() uint32 { return b.lenPerBuf }

func (b *BufferGroupRecord) bufSlice(i uint32) []byte {
	start := uint64(i) * uint64(b.lenPerBuf)
	return b.allBufs[start : start+uint64(b.lenPerBuf)]
}

// ViewSelect returns a slice of the selectIdx-th buffer truncated to
// length bytes. Fails (rather than panicking) if length is zero, too
// large, or selectIdx is out of range. The caller attests the kernel
// is not currently writing that buffer.
func (b *BufferGroupRecord) ViewSelect(selectIdx uint32, length uint32) ([]byte, error) {
	if selectIdx >= b.numBufs {
		return nil, &BufferSelectedNotExistError{SubID: uint64(selectIdx)}
	}
	if length == 0 || length > b.lenPerBuf {
		return nil, &InvalidParameterError{Where: "ViewSelect", Why: "length must be in (0, LenPerBuf]", BadValue: length}
	}
	return b.bufSlice(selectIdx)[:length], nil
}

// TakeOneMutable removes ownership of the single buffer for use as a
// one-shot Recv target. Fails unless NumBufs == 1 (a singleton group).
func (b *BufferGroupRecord) TakeOneMutable() (*TakenMutableBuffer, error) {
	if b.numBufs != 1 {
		return nil, &BufferTakeError{Reason: "buffer group is not singleton"}
	}
	if err := b.state.Take(); err != nil {
		return nil, err
	}
	return &TakenMutableBuffer{buf: b.bufSlice(0)}, nil
}

// TakeOneImmutable removes ownership of the single buffer for use as a
// one-shot Send source.
func (b *BufferGroupRecord) TakeOneImmutable() (*TakenImmutableBuffer, error) {
	if b.numBufs != 1 {
		return nil, &BufferTakeError{Reason: "buffer group is not singleton"}
	}
	if err := b.state.Take(); err != nil {
		return nil, err
	}
	return &TakenImmutableBuffer{buf: b.bufSlice(0)}, nil
}

// ForceKernel unconditionally moves the group into Kernel ownership,
// used when a ProvideBuffers operation for this group is submitted.
func (b *BufferGroupRecord) ForceKernel() { b.state.ForceKernel() }

// MarkReusable releases the group back to Reusable, used when a
// RemoveBuffers operation for this group is submitted.
func (b *BufferGroupRecord) MarkReusable() { b.state.MarkReusable() }

// TakenMutableBuffer is a singleton buffer whose ownership has moved
// out of its BufferGroupRecord for use as a one-shot Recv target.
type TakenMutableBuffer struct {
	buf []byte
}

// Bytes returns the taken buffer.
func (t *TakenMutableBuffer) Bytes() []byte { return t.buf }

// TakenImmutableBuffer is a singleton buffer whose ownership has moved
// out of its BufferGroupRecord for use as a one-shot Send source.
type TakenImmutableBuffer struct {
	buf []byte
}

// Bytes returns the taken buffer.
func (t *TakenImmutableBuffer) Bytes() []byte { return t.buf }
