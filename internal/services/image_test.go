package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-bootimg/internal/parsers/bootcfg"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// writeTestPayload writes size bytes of deterministic content and returns
// the file path and the content.
func writeTestPayload(t *testing.T, dir, name string, size int, seed byte) (string, []byte) {
	t.Helper()

	data := make([]byte, size)
	for i := range data {
		data[i] = seed + byte(i%251)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path, data
}

// createTestImage builds a fresh boot image and returns its path plus the
// payloads keyed by partition.
func createTestImage(t *testing.T, dir string, pageSize uint32, sizes map[types.PartitionKind]int) (string, map[types.PartitionKind][]byte) {
	t.Helper()

	path := filepath.Join(dir, "boot.img")
	img, err := Create(path, pageSize)
	require.NoError(t, err)
	defer img.Close()

	payloads := make(map[types.PartitionKind][]byte)
	var req UpdateRequest
	for p, size := range sizes {
		src, data := writeTestPayload(t, dir, "src_"+filepath.Base(p.String()), size, byte(0x11*(int(p)+1)))
		req.SetFile(p, src)
		payloads[p] = data
	}

	require.NoError(t, img.LoadPartitions(req))
	img.Header.BumpVersion()
	require.NoError(t, img.Commit())

	return path, payloads
}

func TestCreateAndExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()

	path, payloads := createTestImage(t, dir, 4096, map[types.PartitionKind]int{
		types.PartKernel:  3001,
		types.PartRamdisk: 3002,
		types.PartSecond:  3003,
	})

	img, err := Open(path, false)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, uint32(0), img.Header.HeaderVersion)
	assert.Equal(t, uint32(4096), img.Header.PageSize)
	assert.Equal(t, uint32(3001), img.Header.KernelSize)
	assert.Equal(t, uint32(3002), img.Header.RamdiskSize)
	assert.Equal(t, uint32(3003), img.Header.SecondSize)
	assert.Equal(t, uint64(16384), img.Size)

	info := img.Info()
	require.Len(t, info.Partitions, 3)
	assert.Equal(t, uint64(4096), info.Partitions[0].Offset)
	assert.Equal(t, uint64(8192), info.Partitions[1].Offset)
	assert.Equal(t, uint64(12288), info.Partitions[2].Offset)

	for p, want := range payloads {
		out := filepath.Join(dir, "out_"+filepath.Base(p.String()))
		written, err := img.Extract(p, out)
		require.NoError(t, err)
		require.True(t, written)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%s content differs after round trip", p)
	}

	// Absent partitions are skipped.
	written, err := img.Extract(types.PartDtb, filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.False(t, written)
}

func TestVersionMonotonicity(t *testing.T) {
	t.Run("dtb only yields version 2", func(t *testing.T) {
		dir := t.TempDir()
		path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
			types.PartKernel:  1000,
			types.PartRamdisk: 1000,
			types.PartDtb:     500,
		})

		img, err := Open(path, false)
		require.NoError(t, err)
		defer img.Close()

		assert.Equal(t, uint32(2), img.Header.HeaderVersion)
		assert.Equal(t, uint32(types.HeaderV2Size), img.Header.HeaderSize)
	})

	t.Run("recovery dtbo only yields version 1", func(t *testing.T) {
		dir := t.TempDir()
		path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
			types.PartKernel:       1000,
			types.PartRamdisk:      1000,
			types.PartRecoveryDtbo: 500,
		})

		img, err := Open(path, false)
		require.NoError(t, err)
		defer img.Close()

		assert.Equal(t, uint32(1), img.Header.HeaderVersion)
		assert.Equal(t, uint32(types.HeaderV1Size), img.Header.HeaderSize)
	})

	t.Run("update never lowers the version", func(t *testing.T) {
		dir := t.TempDir()
		path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
			types.PartKernel:       1000,
			types.PartRamdisk:      1000,
			types.PartRecoveryDtbo: 500,
		})

		img, err := Open(path, true)
		require.NoError(t, err)
		require.NoError(t, img.LoadPartitions(UpdateRequest{}))
		img.Header.BumpVersion()
		require.NoError(t, img.Commit())
		require.NoError(t, img.Close())

		img, err = Open(path, false)
		require.NoError(t, err)
		defer img.Close()
		assert.Equal(t, uint32(1), img.Header.HeaderVersion)
	})
}

func TestUpdatePreservesUnreplacedPartitions(t *testing.T) {
	dir := t.TempDir()
	path, payloads := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 2000,
		types.PartSecond:  3000,
	})

	// Replace the kernel with something bigger, shifting every later
	// partition's offset.
	newKernel, newKernelData := writeTestPayload(t, dir, "new_kernel", 5000, 0x77)

	img, err := Open(path, true)
	require.NoError(t, err)
	// Pin the size up front so the grown image fits.
	require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "bootsize", Value: "0x8000"}))
	var req UpdateRequest
	req.SetFile(types.PartKernel, newKernel)
	require.NoError(t, img.LoadPartitions(req))
	img.Header.BumpVersion()
	require.NoError(t, img.Commit())
	require.NoError(t, img.Close())

	img, err = Open(path, false)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, uint32(5000), img.Header.KernelSize)

	checks := map[types.PartitionKind][]byte{
		types.PartKernel:  newKernelData,
		types.PartRamdisk: payloads[types.PartRamdisk],
		types.PartSecond:  payloads[types.PartSecond],
	}
	for p, want := range checks {
		out := filepath.Join(dir, "check_"+filepath.Base(p.String()))
		written, err := img.Extract(p, out)
		require.NoError(t, err)
		require.True(t, written)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%s content lost across update", p)
	}
}

func TestUpdateSurvivesPageSizeChange(t *testing.T) {
	dir := t.TempDir()
	path, payloads := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 2000,
	})

	newKernel, _ := writeTestPayload(t, dir, "new_kernel", 1000, 0x55)

	img, err := Open(path, true)
	require.NoError(t, err)
	require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "bootsize", Value: "0x4000"}))
	require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "pagesize", Value: "4096"}))
	var req UpdateRequest
	req.SetFile(types.PartKernel, newKernel)
	require.NoError(t, img.LoadPartitions(req))
	img.Header.BumpVersion()
	require.NoError(t, img.Commit())
	require.NoError(t, img.Close())

	// The ramdisk must have been reloaded from its offset under the old
	// page size, not the new one.
	img, err = Open(path, false)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, uint32(4096), img.Header.PageSize)

	out := filepath.Join(dir, "check_ramdisk")
	written, err := img.Extract(types.PartRamdisk, out)
	require.NoError(t, err)
	require.True(t, written)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, payloads[types.PartRamdisk], got)
}

func TestCommitIdempotent(t *testing.T) {
	dir := t.TempDir()
	path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 2000,
	})

	rewrite := func() []byte {
		img, err := Open(path, true)
		require.NoError(t, err)
		require.NoError(t, img.Commit())
		require.NoError(t, img.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := rewrite()
	second := rewrite()
	assert.Equal(t, first, second, "serializing twice in a row is not byte-identical")
}
