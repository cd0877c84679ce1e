//go:build !linux

package disk

import (
	"errors"
	"os"
)

// blockDeviceSize has no portable implementation; editing block devices is a
// Linux-only capability.
func blockDeviceSize(f *os.File) (uint64, error) {
	return 0, errors.New("block device size query is not supported on this platform")
}

// probeFilesystem is skipped on platforms without signature probing. This is
// a behavioral gap: a block device holding a filesystem will not be detected
// here.
func probeFilesystem(path string) (string, error) {
	return "", nil
}
