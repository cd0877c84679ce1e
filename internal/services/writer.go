package services

import (
	"fmt"

	"github.com/deploymenttheory/go-bootimg/internal/layout"
	"github.com/deploymenttheory/go-bootimg/internal/parsers/header"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// Commit recomputes the layout from the current header, settles the total
// container size and rewrites the image: canonical header on page 0, each
// loaded partition at its page-aligned offset with zero padding to the next
// boundary, then a resize to the declared size. Partitions that were never
// loaded keep their on-disk bytes (their offsets are unchanged by
// construction). The write is not atomic: any I/O failure leaves the target
// inconsistent.
func (img *BootImage) Commit() error {
	lay, err := layout.Calculate(img.Header.PageSize, img.Header.PartitionSizes())
	if err != nil {
		return fmt.Errorf("%s: %w", img.path, err)
	}

	if img.Size == 0 {
		// Fresh creation with no fixed size: adopt the computed minimum.
		img.Size = lay.Total
	} else if lay.Total > img.Size {
		return fmt.Errorf("%s: update is too big for the boot image (%d vs %d bytes)",
			img.path, lay.Total, img.Size)
	}

	if err := img.Validate(); err != nil {
		return err
	}

	hdr, err := header.Serialize(&img.Header)
	if err != nil {
		return err
	}

	pageSize := img.Header.PageSize
	padding := make([]byte, pageSize)

	if err := img.writePadded(hdr, 0, padding); err != nil {
		return err
	}

	for p := types.PartKernel; p < types.PartCount; p++ {
		if img.parts[p] == nil || img.Header.PartitionSize(p) == 0 {
			continue
		}
		if err := img.writePadded(img.parts[p], int64(lay.Offsets[p]), padding); err != nil {
			return err
		}
	}

	// Block devices have a fixed size; everything else is truncated or
	// extended to the declared container size.
	if !img.dev.IsBlockDevice() {
		if err := img.dev.Truncate(int64(img.Size)); err != nil {
			return err
		}
	}

	return nil
}

// writePadded writes data at off followed by zero bytes up to the next page
// boundary. Nothing is written after data that is already page-aligned.
func (img *BootImage) writePadded(data []byte, off int64, padding []byte) error {
	if _, err := img.dev.WriteAt(data, off); err != nil {
		return err
	}

	pad := layout.PaddingSize(img.Header.PageSize, uint32(len(data)))
	if pad == 0 {
		return nil
	}
	_, err := img.dev.WriteAt(padding[:pad], off+int64(len(data)))
	return err
}
