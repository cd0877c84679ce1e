//go:build linux

package disk

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/siderolabs/go-blockdevice/v2/blkid"
	"golang.org/x/sys/unix"
)

// blockDeviceSize queries the size of a block device in bytes.
func blockDeviceSize(f *os.File) (uint64, error) {
	var size uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, fmt.Errorf("failed to get block device size: %w", errno)
	}
	return size, nil
}

// probeFilesystem looks for a known filesystem or partition-table signature
// on the device. An empty name means nothing was recognized.
func probeFilesystem(path string) (string, error) {
	info, err := blkid.ProbePath(path, blkid.WithSkipLocking(true))
	if err != nil {
		return "", err
	}
	return info.Name, nil
}
