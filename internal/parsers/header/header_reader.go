// Package header decodes and encodes the Android boot image header. The
// parser works on a buffer sized for the newest supported version; callers
// reading an older on-disk header zero-fill the tail so the in-memory
// representation is uniform regardless of version.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// versionOffset is the byte position of header_version within the v0 prefix:
// magic plus eight 32-bit size/address fields.
const versionOffset = types.BootMagicSize + 8*4

var endian = binary.LittleEndian

// PeekVersion extracts the header version from a buffer holding at least the
// v0 prefix. The value is returned as stored, without range checking;
// unsupported versions are rejected later during validation.
func PeekVersion(data []byte) (uint32, error) {
	if len(data) < types.HeaderV0Size {
		return 0, fmt.Errorf("data too small for boot image header: %d bytes", len(data))
	}
	return endian.Uint32(data[versionOffset : versionOffset+4]), nil
}

// Parse decodes a header from a buffer of at least the v2 canonical size.
// It decodes layout only; consistency (magic, version, header_size) is the
// caller's validation concern, so that structurally broken images can still
// be inspected and reported.
func Parse(data []byte) (*types.BootImgHdr, error) {
	if len(data) < types.HeaderV2Size {
		return nil, fmt.Errorf("data too small for boot image header: %d bytes, need %d",
			len(data), types.HeaderV2Size)
	}

	h := &types.BootImgHdr{}

	copy(h.Magic[:], data[0:8])
	h.KernelSize = endian.Uint32(data[8:12])
	h.KernelAddr = endian.Uint32(data[12:16])
	h.RamdiskSize = endian.Uint32(data[16:20])
	h.RamdiskAddr = endian.Uint32(data[20:24])
	h.SecondSize = endian.Uint32(data[24:28])
	h.SecondAddr = endian.Uint32(data[28:32])
	h.TagsAddr = endian.Uint32(data[32:36])
	h.PageSize = endian.Uint32(data[36:40])
	h.HeaderVersion = endian.Uint32(data[40:44])
	h.OSVersion = endian.Uint32(data[44:48])

	copy(h.Name[:], data[48:64])
	copy(h.Cmdline[:], data[64:576])

	offset := 576
	for i := range h.ID {
		h.ID[i] = endian.Uint32(data[offset : offset+4])
		offset += 4
	}

	copy(h.ExtraCmdline[:], data[608:1632])

	// Version 1 fields.
	h.RecoveryDtboSize = endian.Uint32(data[1632:1636])
	h.RecoveryDtboOffset = endian.Uint64(data[1636:1644])
	h.HeaderSize = endian.Uint32(data[1644:1648])

	// Version 2 fields.
	h.DtbSize = endian.Uint32(data[1648:1652])
	h.DtbAddr = endian.Uint64(data[1652:1660])

	return h, nil
}
