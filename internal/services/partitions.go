package services

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/deploymenttheory/go-bootimg/internal/parsers/bootcfg"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// UpdateRequest names the replacement source file per partition; an empty
// path keeps the partition as it is in the source image.
type UpdateRequest struct {
	Files [types.PartCount]string
}

// SetFile records a replacement source for one partition.
func (r *UpdateRequest) SetFile(p types.PartitionKind, path string) {
	r.Files[p] = path
}

// LoadPartitions loads replacement partitions from their source files and,
// once any earlier partition has been replaced, pulls every later non-empty
// unreplaced partition into memory from its original on-disk offset. The
// write phase truncates and rewrites the container, so those bytes must be
// captured before it begins; partitions before the first replacement keep
// their offsets and are left on disk untouched.
func (img *BootImage) LoadPartitions(req UpdateRequest) error {
	for p := types.PartKernel; p < types.PartCount; p++ {
		if fname := req.Files[p]; fname != "" {
			data, err := os.ReadFile(fname)
			if err != nil {
				return fmt.Errorf("failed to read %s from %s: %w", p, fname, err)
			}
			if err := checkReplacementSize(p, fname, int64(len(data))); err != nil {
				return err
			}
			img.parts[p] = data
			img.replaced[p] = true
			img.Header.SetPartitionSize(p, uint32(len(data)))
			img.changed = true
			continue
		}

		if img.changed && img.Header.PartitionSize(p) > 0 {
			data, err := img.readOriginal(p)
			if err != nil {
				return err
			}
			img.parts[p] = data
		}
	}

	return nil
}

// checkReplacementSize rejects replacement sources whose size does not fit
// the header's 32-bit size field.
func checkReplacementSize(p types.PartitionKind, fname string, size int64) error {
	if size > math.MaxUint32 {
		return fmt.Errorf("%s from %s is too big (%d bytes, max %d)",
			p, fname, size, uint32(math.MaxUint32))
	}
	return nil
}

// readOriginal reads an unreplaced partition's bytes from the offset it had
// in the source image.
func (img *BootImage) readOriginal(p types.PartitionKind) ([]byte, error) {
	size := img.Header.PartitionSize(p)
	buf := make([]byte, size)
	if _, err := img.dev.ReadAt(buf, int64(img.origOffsets[p])); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", p, err)
	}
	return buf, nil
}

// ApplyEntries applies an ordered list of config entries through the single
// field-update routine.
func (img *BootImage) ApplyEntries(entries []bootcfg.Entry) error {
	for _, e := range entries {
		if err := img.ApplyEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEntry updates one header field (or the container size) from a parsed
// config entry. Numeric values accept C-style literals: decimal, 0x hex and
// leading-0 octal.
func (img *BootImage) ApplyEntry(e bootcfg.Entry) error {
	h := &img.Header

	switch e.Key {
	case "cmdline":
		if len(e.Value) >= types.BootArgsSize {
			return fmt.Errorf("cmdline length (%d) is too long (max %d)",
				len(e.Value), types.BootArgsSize-1)
		}
		h.Cmdline = [types.BootArgsSize]byte{}
		copy(h.Cmdline[:], e.Value)
		return nil

	case "name":
		// Silently truncated to the field capacity, keeping the
		// terminating NUL.
		h.Name = [types.BootNameSize]byte{}
		copy(h.Name[:types.BootNameSize-1], e.Value)
		return nil
	}

	switch e.Key {
	case "bootsize", "pagesize", "kerneladdr", "ramdiskaddr", "secondaddr",
		"tagsaddr", "recoverydtobooffs", "dtbaddr":
	default:
		return fmt.Errorf("%s: bad config entry", e.Key)
	}

	value, err := strconv.ParseUint(e.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("%s: bad config entry value %q", e.Key, e.Value)
	}

	switch e.Key {
	case "bootsize":
		if img.dev != nil && img.dev.IsBlockDevice() && img.Size != value {
			return fmt.Errorf("%s: cannot change boot image size for a block device", img.path)
		}
		img.Size = value
	case "pagesize":
		h.PageSize = uint32(value)
	case "kerneladdr":
		h.KernelAddr = uint32(value)
	case "ramdiskaddr":
		h.RamdiskAddr = uint32(value)
	case "secondaddr":
		h.SecondAddr = uint32(value)
	case "tagsaddr":
		h.TagsAddr = uint32(value)
	case "recoverydtobooffs":
		h.RecoveryDtboOffset = value
	case "dtbaddr":
		h.DtbAddr = value
	}

	return nil
}
