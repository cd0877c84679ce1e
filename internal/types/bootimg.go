package types

// Android boot image format constants, from the AOSP bootimg.h definition.
const (
	BootMagic         = "ANDROID!"
	BootMagicSize     = 8
	BootNameSize      = 16
	BootArgsSize      = 512
	BootExtraArgsSize = 1024
)

// Canonical on-disk header sizes. The three header versions are strictly
// nested prefixes: v1 appends the recovery DTBO fields and header_size to v0,
// v2 appends the DTB fields to v1.
const (
	HeaderV0Size = BootMagicSize + 10*4 + BootNameSize + BootArgsSize + 8*4 + BootExtraArgsSize
	HeaderV1Size = HeaderV0Size + 4 + 8 + 4
	HeaderV2Size = HeaderV1Size + 4 + 8
)

// MaxHeaderVersion is the newest header version this package understands.
const MaxHeaderVersion = 2

// DefaultPageSize is used for images created from scratch when no pagesize
// entry is given.
const DefaultPageSize = 2048

// PartitionKind identifies one of the five payloads of a boot image, in their
// fixed on-disk order.
type PartitionKind int

const (
	PartKernel PartitionKind = iota
	PartRamdisk
	PartSecond
	PartRecoveryDtbo
	PartDtb

	PartCount
)

func (p PartitionKind) String() string {
	switch p {
	case PartKernel:
		return "kernel"
	case PartRamdisk:
		return "ramdisk"
	case PartSecond:
		return "second stage"
	case PartRecoveryDtbo:
		return "recovery dtbo"
	case PartDtb:
		return "dtb"
	}
	return "unknown"
}

// BootImgHdr is the in-memory representation of the boot image header. It is
// always sized for the newest supported version; fields beyond the on-disk
// version's canonical size are zero. Serialization writes only the canonical
// prefix for the current HeaderVersion.
type BootImgHdr struct {
	Magic [BootMagicSize]byte

	KernelSize uint32
	KernelAddr uint32

	RamdiskSize uint32
	RamdiskAddr uint32

	SecondSize uint32
	SecondAddr uint32

	TagsAddr uint32
	PageSize uint32

	HeaderVersion uint32

	// Packed OS version and security patch level:
	// major[31:25] minor[24:18] patch[17:11] (year-2000)[10:4] month[3:0]
	OSVersion uint32

	Name    [BootNameSize]byte
	Cmdline [BootArgsSize]byte
	ID      [8]uint32

	// Kept for binary compatibility with older mkbootimg output.
	ExtraCmdline [BootExtraArgsSize]byte

	// Version 1 fields.
	RecoveryDtboSize   uint32
	RecoveryDtboOffset uint64
	HeaderSize         uint32

	// Version 2 fields.
	DtbSize uint32
	DtbAddr uint64
}

// HeaderSizeForVersion returns the canonical on-disk size for a header
// version. Any version above 2 maps to the v2 size, which is the most this
// package handles.
func HeaderSizeForVersion(version uint32) uint32 {
	switch version {
	case 0:
		return HeaderV0Size
	case 1:
		return HeaderV1Size
	}
	return HeaderV2Size
}

// CanonicalSize returns the on-disk size mandated for the header's current
// version.
func (h *BootImgHdr) CanonicalSize() uint32 {
	return HeaderSizeForVersion(h.HeaderVersion)
}

// BumpVersion raises the header version when a higher-tier partition is
// present: 1 for a recovery DTBO, 2 for a DTB (2 wins when both are set). The
// version is never lowered, even if such a partition later disappears. When
// the version is raised, HeaderSize is rewritten to the new canonical size.
// Calling it again with unchanged sizes is a no-op.
func (h *BootImgHdr) BumpVersion() {
	var newVersion uint32

	if h.RecoveryDtboSize > 0 {
		newVersion = 1
	}
	if h.DtbSize > 0 {
		newVersion = 2
	}

	if newVersion > h.HeaderVersion {
		h.HeaderVersion = newVersion
		h.HeaderSize = h.CanonicalSize()
	}
}

// PartitionSize returns the declared size of a partition. A size of zero
// means the partition is absent.
func (h *BootImgHdr) PartitionSize(p PartitionKind) uint32 {
	switch p {
	case PartKernel:
		return h.KernelSize
	case PartRamdisk:
		return h.RamdiskSize
	case PartSecond:
		return h.SecondSize
	case PartRecoveryDtbo:
		return h.RecoveryDtboSize
	case PartDtb:
		return h.DtbSize
	}
	return 0
}

// SetPartitionSize updates the declared size of a partition.
func (h *BootImgHdr) SetPartitionSize(p PartitionKind, size uint32) {
	switch p {
	case PartKernel:
		h.KernelSize = size
	case PartRamdisk:
		h.RamdiskSize = size
	case PartSecond:
		h.SecondSize = size
	case PartRecoveryDtbo:
		h.RecoveryDtboSize = size
	case PartDtb:
		h.DtbSize = size
	}
}

// PartitionSizes returns all five declared sizes in on-disk order.
func (h *BootImgHdr) PartitionSizes() [PartCount]uint32 {
	return [PartCount]uint32{
		h.KernelSize,
		h.RamdiskSize,
		h.SecondSize,
		h.RecoveryDtboSize,
		h.DtbSize,
	}
}

// NameString returns the product name with trailing NULs stripped.
func (h *BootImgHdr) NameString() string {
	return cString(h.Name[:])
}

// CmdlineString returns the kernel command line with trailing NULs stripped.
func (h *BootImgHdr) CmdlineString() string {
	return cString(h.Cmdline[:])
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// OSVersionParts unpacks the os_version bit field into its components. The
// stored patch-level year is relative to 2000; the returned year is absolute.
func OSVersionParts(v uint32) (major, minor, patch, year, month uint32) {
	major = v >> 25 & 0x7f
	minor = v >> 18 & 0x7f
	patch = v >> 11 & 0x7f
	year = (v>>4)&0x7f + 2000
	month = v & 0xf
	return
}
