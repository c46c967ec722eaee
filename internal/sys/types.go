package sys

// SQE is the Submission Queue Entry (64 bytes).
// This matches struct io_uring_sqe from the kernel.
// The struct uses unions extensively; we represent the full 64 bytes
// and provide accessor methods for different interpretations.
type SQE struct {
	Opcode      uint8  // Operation code (IORING_OP_*)
	Flags       uint8  // IOSQE_* flags
	Ioprio      uint16 // Request priority or op-specific flags
	Fd          int32  // File descriptor
	Off         uint64 // Offset or addr2 (union)
	Addr        uint64 // Buffer address or splice_off_in (union)
	Len         uint32 // Buffer length or number of iovecs
	OpFlags     uint32 // Op-specific flags (rw_flags, fsync_flags, etc.)
	UserData    uint64 // User data - passed back in CQE
	BufIndex    uint16 // Buffer index or buffer group (union)
	Personality uint16 // Personality for credentials
	SpliceFdIn  int32  // Splice input fd or file_index (union)
	Addr3       uint64 // Additional address field
	_pad2       [1]uint64
}

// CQE is the Completion Queue Entry (16 bytes).
// This matches struct io_uring_cqe from the kernel.
type CQE struct {
	UserData uint64 // User data from the SQE
	Res      int32  // Result (bytes transferred or negative errno)
	Flags    uint32 // IORING_CQE_F_* flags
}

// Params is passed to io_uring_setup and returned with ring parameters.
// This matches struct io_uring_params from the kernel.
type Params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        SQRingOffsets
	CQOff        CQRingOffsets
}

// SQRingOffsets contains offsets into the SQ ring mmap region.
type SQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	UserAddr    uint64
}

// CQRingOffsets contains offsets into the CQ ring mmap region.
type CQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	CQEs        uint32
	Flags       uint32
	Resv1       uint32
	UserAddr    uint64
}

// FilesUpdate is used with IORING_REGISTER_FILES_UPDATE.
type FilesUpdate struct {
	Offset uint32
	Resv   uint32
	Fds    uint64 // Pointer to fd array
}

// BufRingSetup is used with IORING_REGISTER_PBUF_RING. Its layout
// matches the kernel's buffer-ring registration struct.
type BufRingSetup struct {
	RingAddr uint64
	Nentries uint16
	_        uint16 // upper half of the kernel's 32-bit ring_entries
	BGid     uint16
	Flags    uint16
	Resv     [3]uint64
}

// Buf describes a provided buffer.
type Buf struct {
	Addr uint64
	Len  uint32
	Bid  uint16
	Resv uint16
}

// SQE accessor methods for union fields

// SetAddr2 sets the addr2 field (alias for Off).
func (s *SQE) SetAddr2(addr2 uint64) {
	s.Off = addr2
}

// SetBufGroup sets the buf_group field (alias for BufIndex).
func (s *SQE) SetBufGroup(group uint16) {
	s.BufIndex = group
}

// SetFileIndex sets the file_index field (alias for SpliceFdIn).
func (s *SQE) SetFileIndex(index int32) {
	s.SpliceFdIn = index
}

// Reset clears the SQE to zero values.
func (s *SQE) Reset() {
	*s = SQE{}
}
