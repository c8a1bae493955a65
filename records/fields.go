package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridiancms/mediacore/pagination"
	"github.com/meridiancms/mediacore/pg"
	"github.com/uptrace/bun"
)

// FieldRecord is one row of the managed field registry. Every row mirrors a
// physical column the field manager added to a collection table.
type FieldRecord struct {
	bun.BaseModel `bun:"table:cms_fields,alias:fd"`

	ID         string         `bun:"id,pk,type:uuid" json:"id"`
	Collection string         `bun:"collection,notnull" json:"collection"`
	Field      string         `bun:"field,notnull" json:"field"`
	Type       string         `bun:"type,notnull" json:"type"`
	Required   bool           `bun:"required,notnull,default:false" json:"required"`
	Note       string         `bun:"note" json:"note"`
	Options    map[string]any `bun:"options,type:jsonb" json:"options,omitempty"`
	Sort       *int           `bun:"sort" json:"sort,omitempty"`

	pg.Timestamps
}

var _ bun.BeforeAppendModelHook = (*FieldRecord)(nil)

// BeforeAppendModel assigns a fresh id on insert and keeps the timestamps.
func (r *FieldRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r.Timestamps.BeforeAppendModel(ctx, query)
}

// FieldFilter narrows field registry queries. Zero fields are ignored.
type FieldFilter struct {
	Collection string
	Field      string
}

func applyFieldFilter(q *bun.SelectQuery, filters FieldFilter) *bun.SelectQuery {
	if filters.Collection != "" {
		q = q.Where("?TableAlias.collection = ?", filters.Collection)
	}
	if filters.Field != "" {
		q = q.Where("?TableAlias.field = ?", filters.Field)
	}
	return q
}

// Unique constraint backing the one-column-one-row invariant.
const fieldUniqueConstraint = "cms_fields_collection_field_key"

// maxFieldsPerPage matches the PostgreSQL column limit per table, so one
// page always covers a whole collection.
const maxFieldsPerPage = 1600

// NewFieldRegistry returns the repository over the field registry table.
// Pass a transaction as idb to enlist registry writes with schema changes.
func NewFieldRegistry(idb bun.IDB) *Repo[FieldRecord, FieldFilter] {
	return NewRepo[FieldRecord](idb, RepoConfig[FieldFilter]{
		Collection:   CollectionFields,
		NotFoundCode: CodeFieldNotFound,
		ConflictCodes: map[string]string{
			fieldUniqueConstraint: CodeFieldExists,
		},
		FilterFunc: applyFieldFilter,
		Pagination: pagination.Config{
			DefaultLimit: maxFieldsPerPage,
			MaxLimit:     maxFieldsPerPage,
			DefaultSize:  maxFieldsPerPage,
			MaxSize:      maxFieldsPerPage,
		},
	})
}
