package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridiancms/mediacore/pagination"
	"github.com/meridiancms/mediacore/pg"
	"github.com/meridiancms/mediacore/sorter"
	"github.com/uptrace/bun"
)

// FileRecord is one row of the managed files collection.
// Pointer fields are nullable columns; nil means the value was never
// derived or set.
type FileRecord struct {
	bun.BaseModel `bun:"table:cms_files,alias:f"`

	ID               string         `bun:"id,pk,type:uuid" json:"id"`
	Storage          string         `bun:"storage,notnull" json:"storage"`
	FilenameDisk     string         `bun:"filename_disk" json:"filename_disk"`
	FilenameDownload string         `bun:"filename_download,notnull" json:"filename_download"`
	Title            string         `bun:"title" json:"title"`
	Description      string         `bun:"description" json:"description"`
	Type             string         `bun:"type" json:"type"`
	Folder           *string        `bun:"folder,type:uuid" json:"folder,omitempty"`
	UploadedBy       *string        `bun:"uploaded_by" json:"uploaded_by,omitempty"`
	Filesize         *int64         `bun:"filesize" json:"filesize,omitempty"`
	Width            *int           `bun:"width" json:"width,omitempty"`
	Height           *int           `bun:"height" json:"height,omitempty"`
	Location         *string        `bun:"location" json:"location,omitempty"`
	Tags             []string       `bun:"tags,array" json:"tags,omitempty"`
	Metadata         map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`

	pg.Timestamps
}

var _ bun.BeforeAppendModelHook = (*FileRecord)(nil)

// BeforeAppendModel assigns a fresh id on insert and keeps the timestamps.
func (r *FileRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r.Timestamps.BeforeAppendModel(ctx, query)
}

// FileFilter narrows file listings. Zero fields are ignored.
type FileFilter struct {
	IDs        []string
	Storage    string
	Type       string
	Folder     string
	UploadedBy string

	// Search matches filename_download and title, case-insensitive.
	Search string
}

func applyFileFilter(q *bun.SelectQuery, filters FileFilter) *bun.SelectQuery {
	if len(filters.IDs) > 0 {
		q = q.Where("?TableAlias.id IN (?)", bun.In(filters.IDs))
	}
	if filters.Storage != "" {
		q = q.Where("?TableAlias.storage = ?", filters.Storage)
	}
	if filters.Type != "" {
		q = q.Where("?TableAlias.type = ?", filters.Type)
	}
	if filters.Folder != "" {
		q = q.Where("?TableAlias.folder = ?", filters.Folder)
	}
	if filters.UploadedBy != "" {
		q = q.Where("?TableAlias.uploaded_by = ?", filters.UploadedBy)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("?TableAlias.filename_download ILIKE ?", pattern).
				WhereOr("?TableAlias.title ILIKE ?", pattern)
		})
	}
	return q
}

// FileSortFields lists the columns exposed for sorting file listings.
//
//nolint:gochecknoglobals // static whitelist for sorter.MakeFromStr
var FileSortFields = []string{
	"filename_download", "type", "filesize", "created_at", "updated_at",
}

// FileStore is the record handle the file lifecycle manager works with.
type FileStore interface {
	// Create inserts the record and returns its id.
	Create(ctx context.Context, rec *FileRecord) (string, error)
	// Update writes the non-zero fields of rec by primary key.
	Update(ctx context.Context, rec *FileRecord) error
	// GetByIDs returns rows matching ids, optionally projected to columns.
	GetByIDs(ctx context.Context, ids []string, columns ...string) ([]FileRecord, error)
	// Delete removes the rows matching ids and reports how many went away.
	Delete(ctx context.Context, ids []string) (int64, error)
	// List returns one page of rows plus pagination meta.
	List(ctx context.Context, filters FileFilter, page pagination.Params, sort sorter.SortOpts) ([]FileRecord, pagination.Response, error)
	// Count returns the number of rows matching the filters.
	Count(ctx context.Context, filters FileFilter) (int, error)
}

type fileStore struct {
	*Repo[FileRecord, FileFilter]
}

func (s fileStore) Create(ctx context.Context, rec *FileRecord) (string, error) {
	if err := s.Repo.Create(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// NewFileStore returns a policy-enforcing handle over the files collection.
func NewFileStore(idb bun.IDB, policy Policy) FileStore {
	return fileStore{newFileRepo(idb, policy)}
}

// NewSystemFileStore returns a handle that bypasses authorization. It backs
// internal finalization writes and must not be exposed to request handling.
func NewSystemFileStore(idb bun.IDB) FileStore {
	return fileStore{newFileRepo(idb, AllowAll)}
}

func newFileRepo(idb bun.IDB, policy Policy) *Repo[FileRecord, FileFilter] {
	return NewRepo[FileRecord](idb, RepoConfig[FileFilter]{
		Collection:   CollectionFiles,
		NotFoundCode: CodeFileNotFound,
		Policy:       policy,
		FilterFunc:   applyFileFilter,
	})
}
