// Package disk provides access to the backing store of a boot image: regular
// image files and raw block devices, with the platform-specific size query
// and filesystem-signature probe the rest of the tool depends on.
package disk

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/go-bootimg/internal/interfaces"
)

// Device is a boot image backing store. It implements
// interfaces.BlockDevice.
type Device struct {
	file    *os.File
	path    string
	size    uint64
	isBlock bool
}

// Open opens an existing boot image for reading, or reading and writing when
// writable is set. Block devices report their size through the platform
// size query; regular files use the file size.
func Open(path string, writable bool) (*Device, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dev, err := newDevice(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}
	return dev, nil
}

// Create opens a boot image target for writing from scratch. Regular files
// are created or truncated; block devices are opened in place and keep their
// fixed size.
func Create(path string) (*Device, error) {
	flag := os.O_RDWR | os.O_CREATE
	if info, err := os.Stat(path); err != nil || info.Mode()&os.ModeDevice == 0 {
		flag |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	dev, err := newDevice(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}
	return dev, nil
}

func newDevice(file *os.File, path string) (*Device, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dev := &Device{
		file: file,
		path: path,
	}

	if info.Mode()&os.ModeDevice != 0 {
		dev.isBlock = true
		dev.size, err = blockDeviceSize(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		dev.size = uint64(info.Size())
	}

	return dev, nil
}

// ReadAt reads len(p) bytes at the given offset. Short reads are errors.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	n, err := d.file.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("%s: read at %d: %w", d.path, off, err)
	}
	return n, nil
}

// WriteAt writes len(p) bytes at the given offset.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	n, err := d.file.WriteAt(p, off)
	if err != nil {
		return n, fmt.Errorf("%s: write at %d: %w", d.path, off, err)
	}
	return n, nil
}

// Path returns the path the device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Size returns the backing store size in bytes.
func (d *Device) Size() uint64 {
	return d.size
}

// IsBlockDevice reports whether the backing store is a raw block device.
func (d *Device) IsBlockDevice() bool {
	return d.isBlock
}

// Truncate resizes the backing store to size bytes, extending or shrinking
// as needed.
func (d *Device) Truncate(size int64) error {
	if err := d.file.Truncate(size); err != nil {
		return fmt.Errorf("%s: truncate to %d: %w", d.path, size, err)
	}
	return nil
}

// Close releases the underlying handle.
func (d *Device) Close() error {
	return d.file.Close()
}

var _ interfaces.BlockDevice = (*Device)(nil)

// platformProber detects filesystem signatures with whatever this platform
// supports. It implements interfaces.FilesystemProber.
type platformProber struct{}

func (platformProber) FilesystemType(path string) (string, error) {
	return probeFilesystem(path)
}

var _ interfaces.FilesystemProber = platformProber{}

// CheckSafeToOverwrite guards create/overwrite targets. A path that does not
// exist yet, or is a regular file, is always safe. A block device is refused
// when it already carries a recognized filesystem signature, to avoid
// silently destroying a valid partition. The probe is platform-dependent and
// skipped where unsupported.
func CheckSafeToOverwrite(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.Mode()&os.ModeDevice == 0 {
		return nil
	}

	return refuseFormattedDevice(path, platformProber{})
}

// refuseFormattedDevice rejects a device target carrying a recognized
// filesystem or partition-table signature.
func refuseFormattedDevice(path string, prober interfaces.FilesystemProber) error {
	fsType, err := prober.FilesystemType(path)
	if err != nil {
		return fmt.Errorf("%s: filesystem probe: %w", path, err)
	}
	if fsType != "" {
		return fmt.Errorf("%s: refuse to write on a valid partition type (%s)", path, fsType)
	}
	return nil
}
