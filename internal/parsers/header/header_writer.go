package header

import (
	"bytes"
	"fmt"

	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// Serialize encodes the header into its canonical on-disk form for the
// current version: 1632, 1648 or 1660 bytes. Fields beyond the canonical
// size are not emitted.
func Serialize(h *types.BootImgHdr) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Grow(types.HeaderV2Size)
	bw := types.NewBinaryWriter(buf, endian)

	if err := serializeFields(bw, h); err != nil {
		return nil, fmt.Errorf("failed to serialize boot image header: %w", err)
	}

	if buf.Len() != types.HeaderV2Size {
		return nil, fmt.Errorf("serialized header is %d bytes, want %d", buf.Len(), types.HeaderV2Size)
	}

	return buf.Bytes()[:h.CanonicalSize()], nil
}

func serializeFields(bw *types.BinaryWriter, h *types.BootImgHdr) error {
	if err := bw.WriteBytes(h.Magic[:]); err != nil {
		return err
	}

	for _, v := range []uint32{
		h.KernelSize, h.KernelAddr,
		h.RamdiskSize, h.RamdiskAddr,
		h.SecondSize, h.SecondAddr,
		h.TagsAddr, h.PageSize,
		h.HeaderVersion, h.OSVersion,
	} {
		if err := bw.WriteUint32(v); err != nil {
			return err
		}
	}

	if err := bw.WriteBytes(h.Name[:]); err != nil {
		return err
	}
	if err := bw.WriteBytes(h.Cmdline[:]); err != nil {
		return err
	}
	for _, w := range h.ID {
		if err := bw.WriteUint32(w); err != nil {
			return err
		}
	}
	if err := bw.WriteBytes(h.ExtraCmdline[:]); err != nil {
		return err
	}

	// Version 1 fields.
	if err := bw.WriteUint32(h.RecoveryDtboSize); err != nil {
		return err
	}
	if err := bw.WriteUint64(h.RecoveryDtboOffset); err != nil {
		return err
	}
	if err := bw.WriteUint32(h.HeaderSize); err != nil {
		return err
	}

	// Version 2 fields.
	if err := bw.WriteUint32(h.DtbSize); err != nil {
		return err
	}
	return bw.WriteUint64(h.DtbAddr)
}
