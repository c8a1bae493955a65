package localdisk_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/filestore"
	"github.com/meridiancms/mediacore/filestore/localdisk"
)

func newDisk(t *testing.T) *localdisk.Disk {
	t.Helper()

	disk, err := localdisk.New(localdisk.Config{Root: t.TempDir()})
	require.NoError(t, err)
	return disk
}

func put(t *testing.T, disk *localdisk.Disk, path, content string) {
	t.Helper()
	require.NoError(t, disk.Put(t.Context(), path, strings.NewReader(content)))
}

func TestPutAndGetStream(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.png", "png-bytes")

	stream, err := disk.GetStream(t.Context(), "abc123.png")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestPutOverwritesExisting(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.png", "old")
	put(t, disk, "abc123.png", "new")

	stream, err := disk.GetStream(t.Context(), "abc123.png")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestPutNestedPath(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "previews/abc123.png", "nested")

	stat, err := disk.GetStat(t.Context(), "previews/abc123.png")
	require.NoError(t, err)
	assert.Equal(t, int64(len("nested")), stat.Size)
}

func TestGetStat(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.bin", "0123456789")

	stat, err := disk.GetStat(t.Context(), "abc123.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stat.Size)
	assert.False(t, stat.ModifiedAt.IsZero())
}

func TestGetStatMissingObject(t *testing.T) {
	disk := newDisk(t)

	_, err := disk.GetStat(t.Context(), "missing.bin")
	require.Error(t, err)
	assert.True(t, filestore.IsObjectNotFound(err))
}

func TestGetStreamMissingObject(t *testing.T) {
	disk := newDisk(t)

	_, err := disk.GetStream(t.Context(), "missing.bin")
	require.Error(t, err)
	assert.True(t, filestore.IsObjectNotFound(err))

	errX := errx.AsErrorX(err)
	assert.Equal(t, errx.T_NotFound, errX.Type())
}

func TestDeleteIsIdempotent(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.png", "bytes")

	require.NoError(t, disk.Delete(t.Context(), "abc123.png"))
	require.NoError(t, disk.Delete(t.Context(), "abc123.png"))

	_, err := disk.GetStat(t.Context(), "abc123.png")
	assert.True(t, filestore.IsObjectNotFound(err))
}

func TestFlatList(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.png", "a")
	put(t, disk, "abc123.xd", "b")
	put(t, disk, "def456.png", "c")

	entries, err := disk.FlatList(t.Context(), "abc123")
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"abc123.png", "abc123.xd"}, paths)
}

func TestFlatListEmptyPrefixListsAll(t *testing.T) {
	disk := newDisk(t)
	put(t, disk, "abc123.png", "a")
	put(t, disk, "previews/def456.png", "b")

	entries, err := disk.FlatList(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRejectsPathTraversal(t *testing.T) {
	disk := newDisk(t)

	err := disk.Put(t.Context(), "../outside.txt", strings.NewReader("x"))
	require.Error(t, err)

	errX := errx.AsErrorX(err)
	assert.Equal(t, errx.T_Validation, errX.Type())
}

func TestPutRespectsContextCancellation(t *testing.T) {
	disk := newDisk(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := disk.Put(ctx, "abc123.png", strings.NewReader("x"))
	require.Error(t, err)

	_, statErr := disk.GetStat(t.Context(), "abc123.png")
	assert.True(t, filestore.IsObjectNotFound(statErr))
}
