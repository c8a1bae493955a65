package assets_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/assets"
	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/filestore"
	"github.com/meridiancms/mediacore/metadata"
	"github.com/meridiancms/mediacore/observability/logger"
	"github.com/meridiancms/mediacore/pagination"
	"github.com/meridiancms/mediacore/records"
	"github.com/meridiancms/mediacore/sorter"
)

// journal records the order of side effects across fakes so tests can
// assert sequencing, not just occurrence.
type journal struct {
	mu  sync.Mutex
	ops []string
}

func (j *journal) add(op string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = append(j.ops, op)
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.ops...)
}

func (j *journal) indexOf(op string) int {
	for i, o := range j.snapshot() {
		if o == op {
			return i
		}
	}
	return -1
}

type fakeDisk struct {
	mu      sync.Mutex
	journal *journal
	objects map[string][]byte
	putErr  error
	listErr error
}

func newFakeDisk(j *journal) *fakeDisk {
	return &fakeDisk{journal: j, objects: make(map[string][]byte)}
}

func (d *fakeDisk) seed(path string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[path] = data
}

func (d *fakeDisk) object(path string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.objects[path]
	return data, ok
}

func (d *fakeDisk) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	paths := make([]string, 0, len(d.objects))
	for path := range d.objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (d *fakeDisk) Put(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if d.putErr != nil {
		return d.putErr
	}

	d.mu.Lock()
	d.objects[path] = data
	d.mu.Unlock()
	d.journal.add("disk.put:" + path)
	return nil
}

func (d *fakeDisk) GetStream(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := d.object(path)
	if !ok {
		return nil, errx.New("object not found", errx.WithCode(filestore.CodeObjectNotFound), errx.WithType(errx.T_NotFound))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d *fakeDisk) GetStat(_ context.Context, path string) (filestore.Stat, error) {
	data, ok := d.object(path)
	if !ok {
		return filestore.Stat{}, errx.New("object not found", errx.WithCode(filestore.CodeObjectNotFound), errx.WithType(errx.T_NotFound))
	}
	return filestore.Stat{Size: int64(len(data))}, nil
}

func (d *fakeDisk) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	delete(d.objects, path)
	d.mu.Unlock()
	d.journal.add("disk.delete:" + path)
	return nil
}

func (d *fakeDisk) FlatList(_ context.Context, prefix string) ([]filestore.Entry, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}

	var entries []filestore.Entry
	for _, path := range d.paths() {
		if strings.HasPrefix(path, prefix) {
			entries = append(entries, filestore.Entry{Path: path})
		}
	}
	return entries, nil
}

type fakeStore struct {
	mu      sync.Mutex
	name    string
	journal *journal

	rows      []records.FileRecord
	createErr error
	updateErr error
	deleteErr error

	created []records.FileRecord
	updated []records.FileRecord
	deleted [][]string
	getCols [][]string
}

func (f *fakeStore) Create(_ context.Context, rec *records.FileRecord) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if rec.ID == "" {
		rec.ID = "file-1"
	}

	f.mu.Lock()
	f.created = append(f.created, *rec)
	f.mu.Unlock()
	f.journal.add(f.name + ".create")
	return rec.ID, nil
}

func (f *fakeStore) Update(_ context.Context, rec *records.FileRecord) error {
	if f.updateErr != nil {
		return f.updateErr
	}

	f.mu.Lock()
	f.updated = append(f.updated, *rec)
	f.mu.Unlock()
	f.journal.add(f.name + ".update")
	return nil
}

func (f *fakeStore) GetByIDs(_ context.Context, _ []string, columns ...string) ([]records.FileRecord, error) {
	f.mu.Lock()
	f.getCols = append(f.getCols, columns)
	f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeStore) Delete(_ context.Context, ids []string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}

	f.mu.Lock()
	f.deleted = append(f.deleted, ids)
	f.mu.Unlock()
	f.journal.add(f.name + ".delete")
	return int64(len(ids)), nil
}

func (f *fakeStore) List(context.Context, records.FileFilter, pagination.Params, sorter.SortOpts) ([]records.FileRecord, pagination.Response, error) {
	return nil, pagination.Response{}, nil
}

func (f *fakeStore) Count(context.Context, records.FileFilter) (int, error) {
	return len(f.rows), nil
}

type fakeExtractor struct {
	mu      sync.Mutex
	summary metadata.Summary
	results []metadata.Result

	preview    []byte
	previewErr error

	imageBuf  []byte
	previewIn []byte
}

func (f *fakeExtractor) ImageSummary(buf []byte) (metadata.Summary, []metadata.Result) {
	f.mu.Lock()
	f.imageBuf = append([]byte(nil), buf...)
	f.mu.Unlock()
	return f.summary, f.results
}

func (f *fakeExtractor) XDPreview(_ context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.previewIn = data
	f.mu.Unlock()

	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return f.preview, nil
}

func (f *fakeExtractor) imageInput() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageBuf
}

func (f *fakeExtractor) previewInput() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewIn
}

type fakeInvalidator struct {
	mu     sync.Mutex
	err    error
	clears int
}

func (f *fakeInvalidator) Clear(context.Context) error {
	f.mu.Lock()
	f.clears++
	f.mu.Unlock()
	return f.err
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

type fakePublisher struct {
	mu          sync.Mutex
	err         error
	fileEvents  []events.FileEvent
	fieldEvents []events.FieldEvent
}

func (f *fakePublisher) PublishFileEvent(_ context.Context, event events.FileEvent) error {
	f.mu.Lock()
	f.fileEvents = append(f.fileEvents, event)
	f.mu.Unlock()
	return f.err
}

func (f *fakePublisher) PublishFieldEvent(_ context.Context, event events.FieldEvent) error {
	f.mu.Lock()
	f.fieldEvents = append(f.fieldEvents, event)
	f.mu.Unlock()
	return f.err
}

func (f *fakePublisher) published() []events.FileEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.FileEvent(nil), f.fileEvents...)
}

// fixture wires a Service around fakes for every collaborator.
type fixture struct {
	journal   *journal
	disk      *fakeDisk
	disks     *filestore.Registry
	store     *fakeStore
	system    *fakeStore
	extractor *fakeExtractor
	cache     *fakeInvalidator
	events    *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	j := &journal{}
	f := &fixture{
		journal:   j,
		disk:      newFakeDisk(j),
		disks:     filestore.NewRegistry(),
		store:     &fakeStore{name: "store", journal: j},
		system:    &fakeStore{name: "system", journal: j},
		extractor: &fakeExtractor{},
		cache:     &fakeInvalidator{},
		events:    &fakePublisher{},
	}
	f.disks.Register("local", f.disk)
	return f
}

func (f *fixture) service(t *testing.T, cfg assets.Config) *assets.Service {
	t.Helper()

	log, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	svc, err := assets.New(assets.Deps{
		Disks:     f.disks,
		Store:     f.store,
		System:    f.system,
		Extractor: f.extractor,
		Cache:     f.cache,
		Events:    f.events,
		Logger:    log,
	}, cfg)
	require.NoError(t, err)
	return svc
}

func TestNewRequiresCoreDeps(t *testing.T) {
	f := newFixture(t)

	full := assets.Deps{
		Disks:     f.disks,
		Store:     f.store,
		System:    f.system,
		Extractor: f.extractor,
	}

	tests := []struct {
		name   string
		mutate func(*assets.Deps)
	}{
		{"missing disks", func(d *assets.Deps) { d.Disks = nil }},
		{"missing store", func(d *assets.Deps) { d.Store = nil }},
		{"missing system store", func(d *assets.Deps) { d.System = nil }},
		{"missing extractor", func(d *assets.Deps) { d.Extractor = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)

			_, err := assets.New(deps, assets.Config{})
			require.Error(t, err)
		})
	}

	svc, err := assets.New(full, assets.Config{})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
