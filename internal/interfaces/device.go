// File: internal/interfaces/device.go
package interfaces

import "io"

// BlockDevice abstracts the backing store of a boot image: a regular file or
// a raw block device. The services layer only ever holds one open device per
// command invocation.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt

	// Path returns the system path the device was opened from.
	Path() string

	// Size returns the total size in bytes: the file size for regular
	// files, the device size for block devices.
	Size() uint64

	// IsBlockDevice reports whether the backing store is a raw block
	// device, whose size cannot be changed.
	IsBlockDevice() bool

	// Truncate resizes the backing store. Not meaningful for block
	// devices.
	Truncate(size int64) error

	// Close releases the handle. Must be called on every exit path.
	Close() error
}

// FilesystemProber detects an existing filesystem signature on a device
// path. Implementations are platform-dependent and best-effort.
type FilesystemProber interface {
	// FilesystemType returns the detected filesystem type name, or an
	// empty string when no signature is recognized.
	FilesystemType(path string) (string, error)
}
