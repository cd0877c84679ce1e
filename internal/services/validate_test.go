package services

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-bootimg/internal/parsers/bootcfg"
	"github.com/deploymenttheory/go-bootimg/internal/types"
)

// corruptField overwrites a little-endian uint32 header field in place.
func corruptField(t *testing.T, path string, offset int64, value uint32) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	_, err = f.WriteAt(buf[:], offset)
	require.NoError(t, err)
}

func TestOpenRejectsInvalidImages(t *testing.T) {
	newImage := func(t *testing.T) (string, string) {
		dir := t.TempDir()
		path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
			types.PartKernel:  1000,
			types.PartRamdisk: 1000,
		})
		return dir, path
	}

	t.Run("zero kernel size", func(t *testing.T) {
		_, path := newImage(t)
		corruptField(t, path, 8, 0) // kernel_size

		_, err := Open(path, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotValidImage)
		assert.Contains(t, err.Error(), "kernel size is null")
	})

	t.Run("zero page size", func(t *testing.T) {
		_, path := newImage(t)
		corruptField(t, path, 36, 0) // page_size

		_, err := Open(path, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotValidImage)
	})

	t.Run("bad magic", func(t *testing.T) {
		_, path := newImage(t)
		corruptField(t, path, 0, 0xdeadbeef)

		_, err := Open(path, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotValidImage)
		assert.Contains(t, err.Error(), "no Android magic value")
	})

	t.Run("unsupported version is fatal not recoverable", func(t *testing.T) {
		_, path := newImage(t)
		corruptField(t, path, 40, 3) // header_version

		_, err := Open(path, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
		assert.NotErrorIs(t, err, ErrNotValidImage)
	})

	t.Run("declared sizes exceeding the container", func(t *testing.T) {
		_, path := newImage(t)
		corruptField(t, path, 8, 1<<20) // kernel_size far beyond the file

		_, err := Open(path, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotValidImage)
		assert.Contains(t, err.Error(), "sizes mismatch")
	})

	t.Run("header size mismatch on v1 is fatal", func(t *testing.T) {
		dir := t.TempDir()
		path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
			types.PartKernel:       1000,
			types.PartRamdisk:      1000,
			types.PartRecoveryDtbo: 200,
		})
		corruptField(t, path, 1644, types.HeaderV2Size) // header_size lies

		_, err := Open(path, false)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotValidImage)
		assert.Contains(t, err.Error(), "invalid header size")
	})
}

func TestUpdateTooBigForFixedSize(t *testing.T) {
	dir := t.TempDir()
	path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 1000,
	})

	// 3 pages on disk; a 10-page kernel cannot fit without growing, and
	// the declared size stays fixed.
	bigKernel, _ := writeTestPayload(t, dir, "big_kernel", 20480, 0x99)

	img, err := Open(path, true)
	require.NoError(t, err)
	defer img.Close()

	var req UpdateRequest
	req.SetFile(types.PartKernel, bigKernel)
	require.NoError(t, img.LoadPartitions(req))
	img.Header.BumpVersion()

	err = img.Commit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too big")

	// The target must not have been modified.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), binary.LittleEndian.Uint32(data[8:12]))
}

func TestApplyEntry(t *testing.T) {
	dir := t.TempDir()
	path, _ := createTestImage(t, dir, 2048, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 1000,
	})

	img, err := Open(path, true)
	require.NoError(t, err)
	defer img.Close()

	t.Run("unknown key", func(t *testing.T) {
		err := img.ApplyEntry(bootcfg.Entry{Key: "foo", Value: "5"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "foo: bad config entry")
	})

	t.Run("hex and decimal literals", func(t *testing.T) {
		require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "kerneladdr", Value: "0x10008000"}))
		assert.Equal(t, uint32(0x10008000), img.Header.KernelAddr)

		require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "tagsaddr", Value: "268435712"}))
		assert.Equal(t, uint32(268435712), img.Header.TagsAddr)

		err := img.ApplyEntry(bootcfg.Entry{Key: "pagesize", Value: "bogus"})
		require.Error(t, err)
	})

	t.Run("cmdline capacity", func(t *testing.T) {
		require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "cmdline", Value: "quiet"}))
		assert.Equal(t, "quiet", img.Header.CmdlineString())

		err := img.ApplyEntry(bootcfg.Entry{Key: "cmdline", Value: strings.Repeat("x", types.BootArgsSize)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too long")
	})

	t.Run("name silently truncates", func(t *testing.T) {
		long := strings.Repeat("n", types.BootNameSize+10)
		require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "name", Value: long}))
		assert.Equal(t, strings.Repeat("n", types.BootNameSize-1), img.Header.NameString())
	})

	t.Run("bootsize on a regular file", func(t *testing.T) {
		require.NoError(t, img.ApplyEntry(bootcfg.Entry{Key: "bootsize", Value: "0x10000"}))
		assert.Equal(t, uint64(0x10000), img.Size)
	})
}

func TestWriteConfigMatchesHeader(t *testing.T) {
	dir := t.TempDir()
	path, _ := createTestImage(t, dir, 4096, map[types.PartitionKind]int{
		types.PartKernel:  1000,
		types.PartRamdisk: 1000,
	})

	img, err := Open(path, false)
	require.NoError(t, err)
	defer img.Close()

	cfgPath := filepath.Join(dir, "bootimg.cfg")
	require.NoError(t, img.WriteConfig(cfgPath))

	entries, err := bootcfg.ParseFile(cfgPath)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, bootcfg.Entry{Key: "pagesize", Value: "0x1000"}, entries[1])

	// The extracted config must apply back without errors.
	for _, e := range entries {
		require.NoError(t, img.ApplyEntry(e))
	}
}

func TestReplacementSizeLimit(t *testing.T) {
	assert.NoError(t, checkReplacementSize(types.PartKernel, "kernel.img", math.MaxUint32))

	err := checkReplacementSize(types.PartKernel, "kernel.img", int64(math.MaxUint32)+1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel from kernel.img is too big")
}
