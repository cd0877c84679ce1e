// Package layout computes the page-aligned placement of boot image
// partitions. The header occupies page 0; each partition starts on the page
// boundary following the previous partition's last occupied page, in the
// fixed order kernel, ramdisk, second stage, recovery dtbo, dtb.
package layout

import (
	"errors"

	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// ErrZeroPageSize is returned when a layout is requested for a zero page
// size.
var ErrZeroPageSize = errors.New("image page size is null")

// Layout holds the derived byte offsets of all partitions and the minimum
// total image size. Absent (size-0) partitions collapse onto the same offset
// as the next partition.
type Layout struct {
	Offsets [types.PartCount]uint64
	Total   uint64
}

// Calculate derives the layout for the given page size and declared
// partition sizes. It is a pure function of its inputs and must be re-run
// whenever any size or the page size changes.
func Calculate(pageSize uint32, sizes [types.PartCount]uint32) (Layout, error) {
	if pageSize == 0 {
		return Layout{}, ErrZeroPageSize
	}

	ps := uint64(pageSize)

	var lay Layout
	pages := uint64(1) // header page
	for p := types.PartKernel; p < types.PartCount; p++ {
		lay.Offsets[p] = pages * ps
		pages += (uint64(sizes[p]) + ps - 1) / ps
	}
	lay.Total = pages * ps

	return lay, nil
}

// PaddingSize returns the number of zero bytes needed after size bytes to
// reach the next page boundary. It is zero when size is already aligned.
func PaddingSize(pageSize uint32, size uint32) uint32 {
	if rem := size % pageSize; rem != 0 {
		return pageSize - rem
	}
	return 0
}
