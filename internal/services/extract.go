package services

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/go-bootimg/internal/parsers/bootcfg"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// WriteConfig writes the image's header fields and size as a config file
// that update and create accept back unchanged.
func (img *BootImage) WriteConfig(path string) error {
	data := bootcfg.Format(&img.Header, img.Size)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Extract copies one partition's bytes out of the image into a file. Absent
// (size-0) partitions are skipped; the returned bool reports whether
// anything was written.
func (img *BootImage) Extract(p types.PartitionKind, path string) (bool, error) {
	size := img.Header.PartitionSize(p)
	if size == 0 {
		return false, nil
	}

	data, err := img.readOriginal(p)
	if err != nil {
		return false, fmt.Errorf("%s: %w", img.path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s image: %w", p, err)
	}

	return true, nil
}
