package records

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/meridiancms/mediacore/pagination"
	"github.com/meridiancms/mediacore/pg"
	"github.com/meridiancms/mediacore/sorter"
	"github.com/uptrace/bun"
)

// RepoConfig configures a generic repository.
type RepoConfig[F any] struct {
	// Collection is the table the repository manages. It names the rows in
	// error messages and is passed to the policy on every operation.
	Collection string

	// Schema is the PostgreSQL schema holding the table. Defaults to public.
	Schema string

	// NotFoundCode is the errx code raised when a targeted row is missing.
	NotFoundCode string

	// ConflictCodes maps constraint names to errx codes,
	// e.g. map["cms_fields_collection_field_key"] = "FIELD_ALREADY_EXISTS".
	ConflictCodes map[string]string

	// Policy authorizes every operation. Defaults to AllowAll.
	Policy Policy

	// FilterFunc applies the filter type F to a select query.
	FilterFunc func(q *bun.SelectQuery, filters F) *bun.SelectQuery

	// Pagination bounds List. Defaults to pagination.DefaultConfig.
	Pagination pagination.Config
}

// Repo provides policy-checked CRUD and listing for one table using bun.
type Repo[E any, F any] struct {
	idb           bun.IDB
	collection    string
	schema        string
	notFoundCode  string
	conflictCodes map[string]string
	policy        Policy
	filterFunc    func(q *bun.SelectQuery, filters F) *bun.SelectQuery
	pageCfg       pagination.Config
}

// NewRepo creates a repository for entity type E filtered by F.
func NewRepo[E any, F any](idb bun.IDB, cfg RepoConfig[F]) *Repo[E, F] {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.NotFoundCode == "" {
		cfg.NotFoundCode = "OBJECT_NOT_FOUND"
	}
	if cfg.Policy == nil {
		cfg.Policy = AllowAll
	}
	if cfg.FilterFunc == nil {
		cfg.FilterFunc = func(q *bun.SelectQuery, _ F) *bun.SelectQuery { return q }
	}
	if cfg.Pagination == (pagination.Config{}) {
		cfg.Pagination = pagination.DefaultConfig()
	}

	return &Repo[E, F]{
		idb:           idb,
		collection:    cfg.Collection,
		schema:        cfg.Schema,
		notFoundCode:  cfg.NotFoundCode,
		conflictCodes: cfg.ConflictCodes,
		policy:        cfg.Policy,
		filterFunc:    cfg.FilterFunc,
		pageCfg:       cfg.Pagination,
	}
}

// WithDB returns a copy of the repository bound to idb. It is used to run
// repository operations inside an open transaction.
func (r *Repo[E, F]) WithDB(idb bun.IDB) *Repo[E, F] {
	clone := *r
	clone.idb = idb
	return &clone
}

// Create inserts the entity and populates it from the stored row.
func (r *Repo[E, F]) Create(ctx context.Context, entity *E) error {
	if err := r.authorize(ctx, ActionCreate); err != nil {
		return err
	}

	q := r.idb.NewInsert().Model(entity).Returning("*")
	q = r.applyInsertModelTableExpr(q)

	if _, err := q.Exec(ctx); err != nil {
		if code, exists := r.conflictCodes[pg.ConstraintName(err)]; exists {
			return errx.New(
				fmt.Sprintf("conflict while creating %s row", r.collection),
				errx.WithCode(code),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(pg.GetPgErrorDetails(err, q)),
			)
		}
		return errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	return nil
}

// Update writes the non-zero columns of the entity by primary key and
// populates it from the stored row. A missing row raises the configured
// not-found code.
func (r *Repo[E, F]) Update(ctx context.Context, entity *E) error {
	if err := r.authorize(ctx, ActionUpdate); err != nil {
		return err
	}

	q := r.idb.NewUpdate().Model(entity).WherePK().OmitZero().Returning("*")
	q = r.applyUpdateModelTableExpr(q)

	return r.execUpdate(ctx, q)
}

// UpdateColumns writes only the named columns of the entity by primary key,
// zero values included, and populates it from the stored row.
func (r *Repo[E, F]) UpdateColumns(ctx context.Context, entity *E, columns ...string) error {
	if err := r.authorize(ctx, ActionUpdate); err != nil {
		return err
	}

	q := r.idb.NewUpdate().Model(entity).WherePK().Column(columns...).Returning("*")
	q = r.applyUpdateModelTableExpr(q)

	return r.execUpdate(ctx, q)
}

func (r *Repo[E, F]) execUpdate(ctx context.Context, q *bun.UpdateQuery) error {
	result, err := q.Exec(ctx)
	if err != nil {
		if code, exists := r.conflictCodes[pg.ConstraintName(err)]; exists {
			return errx.New(
				fmt.Sprintf("conflict while updating %s row", r.collection),
				errx.WithCode(code),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(pg.GetPgErrorDetails(err, q)),
			)
		}
		return errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	if rowsAffected == 0 {
		return errx.New(
			fmt.Sprintf("no %s row found to update", r.collection),
			errx.WithCode(r.notFoundCode),
			errx.WithType(errx.T_NotFound),
		)
	}

	return nil
}

// GetByIDs returns the rows matching ids. When columns are given only those
// are selected; the remaining fields stay zero. Unknown ids are skipped.
func (r *Repo[E, F]) GetByIDs(ctx context.Context, ids []string, columns ...string) ([]E, error) {
	if err := r.authorize(ctx, ActionRead); err != nil {
		return nil, err
	}

	entities := make([]E, 0, len(ids))
	if len(ids) == 0 {
		return entities, nil
	}

	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	q = q.Where("?TableAlias.id IN (?)", bun.In(ids))

	if err := q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	return entities, nil
}

// Delete removes the rows matching ids and reports how many went away.
func (r *Repo[E, F]) Delete(ctx context.Context, ids []string) (int64, error) {
	if err := r.authorize(ctx, ActionDelete); err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	q := r.idb.NewDelete().Model((*E)(nil))
	q = r.applyDeleteModelTableExpr(q)
	q = q.Where("?TableAlias.id IN (?)", bun.In(ids))

	result, err := q.Exec(ctx)
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	return rowsAffected, nil
}

// List returns one page of rows matching the filters together with the
// pagination meta for the full result set.
func (r *Repo[E, F]) List(
	ctx context.Context,
	filters F,
	page pagination.Params,
	sort sorter.SortOpts,
) ([]E, pagination.Response, error) {
	if err := r.authorize(ctx, ActionRead); err != nil {
		return nil, pagination.Response{}, err
	}

	page.Normalize(r.pageCfg)

	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)

	for _, opt := range sort {
		q = q.Order(opt.ToSQL())
	}

	limit, offset := page.ToLimitOffset()
	q = q.Limit(limit).Offset(offset)

	if err := q.Scan(ctx); err != nil {
		return nil, pagination.Response{}, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	q = q.Offset(0).Limit(0)
	total, err := q.Count(ctx)
	if err != nil {
		return nil, pagination.Response{}, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	return entities, page.NewResponse(int64(total)), nil
}

// Count returns the number of rows matching the filters.
func (r *Repo[E, F]) Count(ctx context.Context, filters F) (int, error) {
	if err := r.authorize(ctx, ActionRead); err != nil {
		return 0, err
	}

	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	return count, nil
}

func (r *Repo[E, F]) authorize(ctx context.Context, action Action) error {
	return r.policy.Authorize(ctx, action, r.collection)
}

func (r *Repo[E, F]) applyModelTableExpr(q *bun.SelectQuery) *bun.SelectQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schema), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *Repo[E, F]) applyInsertModelTableExpr(q *bun.InsertQuery) *bun.InsertQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schema), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *Repo[E, F]) applyUpdateModelTableExpr(q *bun.UpdateQuery) *bun.UpdateQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schema), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *Repo[E, F]) applyDeleteModelTableExpr(q *bun.DeleteQuery) *bun.DeleteQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schema), bun.Ident(table.Name), bun.Ident(table.Alias))
}
