package assets_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/assets"
	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/records"
)

func TestDeleteRemovesRowsThenObjects(t *testing.T) {
	f := newFixture(t)
	f.store.rows = []records.FileRecord{
		{ID: "file-1", Storage: "local"},
		{ID: "file-2", Storage: "local"},
	}
	f.disk.seed("file-1.jpg", []byte("image"))
	f.disk.seed("file-1.png", []byte("preview"))
	f.disk.seed("file-2.pdf", []byte("doc"))
	svc := f.service(t, assets.Config{CacheAutoPurge: true})

	ids, err := svc.Delete(t.Context(), []string{"file-1", "file-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1", "file-2"}, ids)

	require.Len(t, f.store.deleted, 1)
	assert.Equal(t, []string{"file-1", "file-2"}, f.store.deleted[0])
	assert.Empty(t, f.disk.paths())

	// Rows go away before any object does.
	assert.Less(t, f.journal.indexOf("store.delete"), f.journal.indexOf("disk.delete:file-1.jpg"))

	// The existence check projects only what the sweep needs.
	require.Len(t, f.store.getCols, 1)
	assert.Equal(t, []string{"id", "storage"}, f.store.getCols[0])

	assert.Equal(t, 1, f.cache.count())

	published := f.events.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.FileDeleted, published[0].Action)
	assert.Equal(t, []string{"file-1", "file-2"}, published[0].IDs)
}

func TestDeleteMasksMissingFiles(t *testing.T) {
	f := newFixture(t)
	f.disk.seed("file-1.jpg", []byte("image"))
	svc := f.service(t, assets.Config{})

	_, err := svc.Delete(t.Context(), []string{"file-1"})
	require.Error(t, err)

	errX := errx.AsErrorX(err)
	assert.Equal(t, records.CodeAccessDenied, errX.Code())
	assert.Equal(t, errx.T_Forbidden, errX.Type())

	assert.Empty(t, f.store.deleted)
	_, exists := f.disk.object("file-1.jpg")
	assert.True(t, exists)
	assert.Empty(t, f.events.published())
}

func TestDeleteRequiresIDs(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, assets.Config{})

	_, err := svc.Delete(t.Context(), nil)
	require.Error(t, err)

	errX := errx.AsErrorX(err)
	assert.Equal(t, assets.CodeNoFilesGiven, errX.Code())
	assert.Equal(t, errx.T_Validation, errX.Type())
}

func TestDeleteOne(t *testing.T) {
	f := newFixture(t)
	f.store.rows = []records.FileRecord{{ID: "file-1", Storage: "local"}}
	f.disk.seed("file-1.txt", []byte("notes"))
	svc := f.service(t, assets.Config{})

	id, err := svc.DeleteOne(t.Context(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)
	assert.Empty(t, f.disk.paths())
}

func TestDeleteUnknownStorageSkipsSweep(t *testing.T) {
	f := newFixture(t)
	f.store.rows = []records.FileRecord{{ID: "file-1", Storage: "ghost"}}
	svc := f.service(t, assets.Config{})

	ids, err := svc.Delete(t.Context(), []string{"file-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1"}, ids)

	require.Len(t, f.store.deleted, 1)
	require.Len(t, f.events.published(), 1)
}

func TestDeleteStoreFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.store.rows = []records.FileRecord{{ID: "file-1", Storage: "local"}}
	f.store.deleteErr = errx.New("db down")
	f.disk.seed("file-1.txt", []byte("notes"))
	svc := f.service(t, assets.Config{})

	_, err := svc.Delete(t.Context(), []string{"file-1"})
	require.Error(t, err)

	_, exists := f.disk.object("file-1.txt")
	assert.True(t, exists)
	assert.Empty(t, f.events.published())
}

func TestDeleteSweepFailureAbsorbed(t *testing.T) {
	f := newFixture(t)
	f.store.rows = []records.FileRecord{{ID: "file-1", Storage: "local"}}
	f.disk.listErr = errx.New("listing failed")
	svc := f.service(t, assets.Config{})

	ids, err := svc.Delete(t.Context(), []string{"file-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1"}, ids)
}
