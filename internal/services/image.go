// Package services implements the boot image operations behind the CLI:
// opening and validating an existing image, replacing partitions, and
// writing a consistent image back out.
package services

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-bootimg/internal/disk"
	"github.com/deploymenttheory/go-bootimg/internal/interfaces"
	"github.com/deploymenttheory/go-bootimg/internal/layout"
	"github.com/deploymenttheory/go-bootimg/internal/parsers/header"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// ErrNotValidImage marks recoverable structural validation failures on an
// existing image: missing magic, null kernel/ramdisk/page size, declared
// size smaller than the computed minimum. The command aborts without
// touching the target; callers can test for it with errors.Is.
var ErrNotValidImage = errors.New("not a valid Android boot image")

// ErrUnsupportedVersion is fatal: the image declares a header version newer
// than this tool understands.
var ErrUnsupportedVersion = errors.New("unsupported Android boot image version")

// BootImage is a boot image being inspected or edited. It exclusively owns
// its backing store handle, header and partition buffers for the duration of
// one command.
type BootImage struct {
	dev  interfaces.BlockDevice
	path string

	Header types.BootImgHdr

	// Size is the declared total container size: the backing file or
	// device size for existing images, zero for fresh creations until the
	// writer adopts the computed minimum.
	Size uint64

	// Partition offsets computed from the header as it was read, before
	// any edit. Lazy reloads and extraction use these, never offsets
	// derived from an edited header.
	origOffsets [types.PartCount]uint64

	parts    [types.PartCount][]byte
	replaced [types.PartCount]bool
	changed  bool
}

// Open opens an existing boot image, reads its version-dependent header and
// validates it. The caller must Close the image on every path.
func Open(path string, writable bool) (*BootImage, error) {
	dev, err := disk.Open(path, writable)
	if err != nil {
		return nil, err
	}

	img := &BootImage{
		dev:  dev,
		path: path,
		Size: dev.Size(),
	}

	if err := img.readHeader(); err != nil {
		dev.Close()
		return nil, err
	}

	if err := img.Validate(); err != nil {
		dev.Close()
		return nil, err
	}

	// Validation guarantees a non-zero page size, so the original layout
	// is well defined here.
	lay, err := layout.Calculate(img.Header.PageSize, img.Header.PartitionSizes())
	if err != nil {
		dev.Close()
		return nil, err
	}
	img.origOffsets = lay.Offsets

	return img, nil
}

// Create prepares a boot image target for creation from scratch. For block
// device targets the filesystem-signature guard runs first and the device
// size becomes the fixed container size; regular files start at size zero
// and adopt the computed minimum on commit.
func Create(path string, pageSize uint32) (*BootImage, error) {
	if err := disk.CheckSafeToOverwrite(path); err != nil {
		return nil, err
	}

	dev, err := disk.Create(path)
	if err != nil {
		return nil, err
	}

	img := &BootImage{
		dev:  dev,
		path: path,
	}
	copy(img.Header.Magic[:], types.BootMagic)
	img.Header.PageSize = pageSize

	if dev.IsBlockDevice() {
		img.Size = dev.Size()
	}

	return img, nil
}

// readHeader reads the base-version prefix, inspects the version field and
// reads the remainder up to that version's canonical size. The in-memory
// buffer is always v2-sized with the unread tail zero-filled.
func (img *BootImage) readHeader() error {
	buf := make([]byte, types.HeaderV2Size)

	if _, err := img.dev.ReadAt(buf[:types.HeaderV0Size], 0); err != nil {
		return fmt.Errorf("%s: cannot read image header: %w", img.path, err)
	}

	version, err := header.PeekVersion(buf)
	if err != nil {
		return err
	}

	if size := types.HeaderSizeForVersion(version); size > types.HeaderV0Size {
		if _, err := img.dev.ReadAt(buf[types.HeaderV0Size:size], types.HeaderV0Size); err != nil {
			return fmt.Errorf("%s: cannot read image header: %w", img.path, err)
		}
	}

	h, err := header.Parse(buf)
	if err != nil {
		return err
	}
	img.Header = *h

	return nil
}

// Validate checks the internal consistency of the image. An unsupported
// header version or a header_size field that disagrees with the version's
// canonical size is fatal; the remaining checks are recoverable and wrap
// ErrNotValidImage.
func (img *BootImage) Validate() error {
	h := &img.Header

	if string(h.Magic[:]) != types.BootMagic {
		return fmt.Errorf("%s: no Android magic value: %w", img.path, ErrNotValidImage)
	}

	if h.HeaderVersion > types.MaxHeaderVersion {
		return fmt.Errorf("%s: version %d: %w", img.path, h.HeaderVersion, ErrUnsupportedVersion)
	}

	if h.HeaderVersion >= 1 && h.HeaderSize != h.CanonicalSize() {
		return fmt.Errorf("%s: invalid header size %d for version %d (want %d)",
			img.path, h.HeaderSize, h.HeaderVersion, h.CanonicalSize())
	}

	if h.KernelSize == 0 {
		return fmt.Errorf("%s: kernel size is null: %w", img.path, ErrNotValidImage)
	}
	if h.RamdiskSize == 0 {
		return fmt.Errorf("%s: ramdisk size is null: %w", img.path, ErrNotValidImage)
	}
	if h.PageSize == 0 {
		return fmt.Errorf("%s: image page size is null: %w", img.path, ErrNotValidImage)
	}

	lay, err := layout.Calculate(h.PageSize, h.PartitionSizes())
	if err != nil {
		return fmt.Errorf("%s: %w", img.path, err)
	}
	if lay.Total > img.Size {
		return fmt.Errorf("%s: sizes mismatch in boot image (need %d bytes, have %d): %w",
			img.path, lay.Total, img.Size, ErrNotValidImage)
	}

	return nil
}

// Path returns the boot image path.
func (img *BootImage) Path() string {
	return img.path
}

// IsBlockDevice reports whether the image lives on a raw block device.
func (img *BootImage) IsBlockDevice() bool {
	return img.dev.IsBlockDevice()
}

// Close releases the backing store handle.
func (img *BootImage) Close() error {
	return img.dev.Close()
}
