package fields

import (
	"context"
	"database/sql"
	"time"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/meridiancms/mediacore/cache"
	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/meta"
	"github.com/meridiancms/mediacore/observability/logger"
	"github.com/meridiancms/mediacore/pagination"
	"github.com/meridiancms/mediacore/records"
	"github.com/meridiancms/mediacore/sorter"
	"github.com/meridiancms/mediacore/val"
)

// Deps carries the collaborators of the Service. DB is required; Cache,
// Events and Logger are optional.
type Deps struct {
	DB *bun.DB

	// Cache is cleared after mutations when Config.CacheAutoPurge is set.
	Cache cache.Invalidator

	// Events stages field events inside the mutation transaction, so a
	// schema change and its notification commit or roll back together.
	Events events.TxPublisher

	Logger logger.Logger
}

// Config tunes the schema-field manager.
type Config struct {
	// Schema is the postgres schema holding the collection tables.
	Schema string `yaml:"schema" default:"public"`

	// CacheAutoPurge clears the cache invalidator after every mutation.
	CacheAutoPurge bool `yaml:"cache_auto_purge" json:"cache_auto_purge"`
}

// Service adds, updates and removes managed fields. Each mutation keeps the
// physical column and the registry row in one transaction.
type Service struct {
	db       *bun.DB
	registry *records.Repo[records.FieldRecord, records.FieldFilter]
	cache    cache.Invalidator
	events   events.TxPublisher
	log      logger.Logger
	cfg      Config
}

// New validates deps and builds a Service.
func New(deps Deps, cfg Config) (*Service, error) {
	if deps.DB == nil {
		return nil, errx.New("db handle is required", errx.WithType(errx.T_Internal))
	}

	if deps.Logger == nil {
		deps.Logger = logger.Named("fields")
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}

	return &Service{
		db:       deps.DB,
		registry: records.NewFieldRegistry(deps.DB),
		cache:    deps.Cache,
		events:   deps.Events,
		log:      deps.Logger,
		cfg:      cfg,
	}, nil
}

// Create registers a new field and adds its column to the collection table.
// The column is always added nullable: Required is write-time metadata, not
// a column constraint, so tables with existing rows never block the change.
// A duplicate (collection, field) pair fails with FIELD_ALREADY_EXISTS.
func (s *Service) Create(ctx context.Context, spec FieldSpec) (records.FieldRecord, error) {
	var zero records.FieldRecord

	if err := val.ValidateSchema(spec); err != nil {
		return zero, err
	}
	if err := validateIdentifiers(spec.Collection, spec.Field); err != nil {
		return zero, err
	}
	if err := guardSystemCollection(spec.Collection); err != nil {
		return zero, err
	}
	colType, err := columnType(spec.Type)
	if err != nil {
		return zero, err
	}

	exists, err := records.TableExists(ctx, s.db, s.cfg.Schema, spec.Collection)
	if err != nil {
		return zero, errx.Wrap(err)
	}
	if !exists {
		return zero, errx.New(
			"collection table does not exist",
			errx.WithCode(CodeCollectionNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"collection": spec.Collection}),
		)
	}

	rec := records.FieldRecord{
		Collection: spec.Collection,
		Field:      spec.Field,
		Type:       string(spec.Type),
		Required:   spec.Required,
		Note:       spec.Note,
		Options:    spec.Options,
		Sort:       spec.Sort,
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := s.registry.WithDB(tx).Create(ctx, &rec); err != nil {
			return err
		}

		if _, err := tx.NewRaw(
			"ALTER TABLE ?.? ADD COLUMN ? ?",
			bun.Ident(s.cfg.Schema), bun.Ident(spec.Collection), bun.Ident(spec.Field), bun.Safe(colType),
		).Exec(ctx); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{
				"collection": spec.Collection,
				"field":      spec.Field,
			}))
		}

		return s.publishTx(ctx, tx, events.FieldCreated, rec)
	})
	if err != nil {
		return zero, errx.Wrap(err)
	}

	s.clearCache(ctx)
	return rec, nil
}

// Update rewrites the registry metadata of an existing field: required,
// note, options and sort. The field is addressed by (collection, field);
// renames are not expressible and type changes are rejected, since both
// would desync registry and column.
func (s *Service) Update(ctx context.Context, spec FieldSpec) (records.FieldRecord, error) {
	var zero records.FieldRecord

	if err := val.ValidateSchema(spec); err != nil {
		return zero, err
	}

	existing, err := s.Get(ctx, spec.Collection, spec.Field)
	if err != nil {
		return zero, err
	}

	if spec.Type != "" && string(spec.Type) != existing.Type {
		return zero, errx.New(
			"field type changes are not supported",
			errx.WithCode(CodeFieldTypeImmutable),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"current":   existing.Type,
				"requested": string(spec.Type),
			}),
		)
	}

	existing.Required = spec.Required
	existing.Note = spec.Note
	existing.Options = spec.Options
	existing.Sort = spec.Sort

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := s.registry.WithDB(tx).UpdateColumns(ctx, &existing,
			"required", "note", "options", "sort", "updated_at"); err != nil {
			return err
		}

		return s.publishTx(ctx, tx, events.FieldUpdated, existing)
	})
	if err != nil {
		return zero, errx.Wrap(err)
	}

	s.clearCache(ctx)
	return existing, nil
}

// Delete drops the column and removes the registry row in one transaction.
// Unknown fields fail with FIELD_NOT_FOUND.
func (s *Service) Delete(ctx context.Context, collection, field string) error {
	if err := validateIdentifiers(collection, field); err != nil {
		return err
	}
	if err := guardSystemCollection(collection); err != nil {
		return err
	}

	existing, err := s.Get(ctx, collection, field)
	if err != nil {
		return err
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		deleted, err := s.registry.WithDB(tx).Delete(ctx, []string{existing.ID})
		if err != nil {
			return err
		}
		if deleted == 0 {
			return errx.New(
				"field is no longer registered",
				errx.WithCode(records.CodeFieldNotFound),
				errx.WithType(errx.T_NotFound),
			)
		}

		if _, err := tx.NewRaw(
			"ALTER TABLE ?.? DROP COLUMN IF EXISTS ?",
			bun.Ident(s.cfg.Schema), bun.Ident(collection), bun.Ident(field),
		).Exec(ctx); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{
				"collection": collection,
				"field":      field,
			}))
		}

		return s.publishTx(ctx, tx, events.FieldDeleted, existing)
	})
	if err != nil {
		return errx.Wrap(err)
	}

	s.clearCache(ctx)
	return nil
}

// Get returns the registry row for (collection, field).
func (s *Service) Get(ctx context.Context, collection, field string) (records.FieldRecord, error) {
	var zero records.FieldRecord

	rows, _, err := s.registry.List(ctx,
		records.FieldFilter{Collection: collection, Field: field},
		pagination.Params{Limit: 1},
		nil,
	)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, errx.New(
			"field is not registered",
			errx.WithCode(records.CodeFieldNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"collection": collection, "field": field}),
		)
	}
	return rows[0], nil
}

// List returns the registry rows of a collection ordered by sort, then name.
func (s *Service) List(ctx context.Context, collection string) ([]records.FieldRecord, error) {
	rows, _, err := s.registry.List(ctx,
		records.FieldFilter{Collection: collection},
		pagination.Params{},
		sorter.Make(
			sorter.Opt{F: "sort", D: sorter.Asc},
			sorter.Opt{F: "field", D: sorter.Asc},
		),
	)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) publishTx(ctx context.Context, tx bun.Tx, action string, rec records.FieldRecord) error {
	if s.events == nil {
		return nil
	}

	return s.events.PublishFieldEventTx(ctx, tx, events.FieldEvent{
		Action:     action,
		Collection: rec.Collection,
		Field:      rec.Field,
		Type:       rec.Type,
		Actor:      meta.Find(ctx, meta.RequestUserID),
		OccurredAt: time.Now(),
	})
}

func (s *Service) clearCache(ctx context.Context) {
	if s.cache == nil || !s.cfg.CacheAutoPurge {
		return
	}

	if err := s.cache.Clear(ctx); err != nil {
		s.log.WithContext(ctx).With("error", err).Warn("[fields]: clearing cache failed")
	}
}
