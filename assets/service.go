// Package assets manages the lifecycle of uploaded files: streaming
// bytes to a storage disk, extracting metadata, keeping the file
// record in sync and fanning out cache purges and domain events.
package assets

import (
	"context"
	"time"

	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/cache"
	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/filestore"
	"github.com/meridiancms/mediacore/meta"
	"github.com/meridiancms/mediacore/metadata"
	"github.com/meridiancms/mediacore/observability/logger"
	"github.com/meridiancms/mediacore/records"
)

// Deps carries the collaborators of the Service. Disks, Store, System
// and Extractor are required; Cache, Events and Logger are optional.
type Deps struct {
	// Disks resolves storage adapters by location name.
	Disks *filestore.Registry

	// Store is the policy-guarded file record store used for caller
	// facing reads and writes.
	Store records.FileStore

	// System is an unguarded file record store used to finalize rows
	// after the storage pass. It must not be exposed to request
	// handling.
	System records.FileStore

	// Extractor produces image summaries and design previews.
	Extractor metadata.Extractor

	// Cache is cleared after mutations when Config.CacheAutoPurge is
	// set. Nil disables purging.
	Cache cache.Invalidator

	// Events receives best-effort file lifecycle events. Nil disables
	// publishing.
	Events events.Publisher

	Logger logger.Logger
}

// Service implements upload, replace and delete over the configured
// storage disks and record store.
type Service struct {
	disks     *filestore.Registry
	store     records.FileStore
	system    records.FileStore
	extractor metadata.Extractor
	cache     cache.Invalidator
	events    events.Publisher
	log       logger.Logger
	cfg       Config
}

// New validates deps and builds a Service.
func New(deps Deps, cfg Config) (*Service, error) {
	switch {
	case deps.Disks == nil:
		return nil, errx.New("disks registry is required", errx.WithType(errx.T_Internal))
	case deps.Store == nil:
		return nil, errx.New("file store is required", errx.WithType(errx.T_Internal))
	case deps.System == nil:
		return nil, errx.New("system file store is required", errx.WithType(errx.T_Internal))
	case deps.Extractor == nil:
		return nil, errx.New("metadata extractor is required", errx.WithType(errx.T_Internal))
	}

	if deps.Logger == nil {
		deps.Logger = logger.Named("assets")
	}
	if cfg.MetadataReadLimit <= 0 {
		cfg.MetadataReadLimit = DefaultMetadataReadLimit
	}

	return &Service{
		disks:     deps.Disks,
		store:     deps.Store,
		system:    deps.System,
		extractor: deps.Extractor,
		cache:     deps.Cache,
		events:    deps.Events,
		log:       deps.Logger,
		cfg:       cfg,
	}, nil
}

// purgeObjects removes every stored object whose path starts with the
// file id: the primary object plus derived artifacts such as previews.
// Failures are logged and skipped so a partial sweep never blocks the
// caller.
func (s *Service) purgeObjects(ctx context.Context, disk filestore.Disk, id string) {
	log := s.log.WithContext(ctx)

	entries, err := disk.FlatList(ctx, id)
	if err != nil {
		log.With("error", err, "prefix", id).Warn("[assets]: listing stored objects failed")
		return
	}

	for _, entry := range entries {
		if err := disk.Delete(ctx, entry.Path); err != nil {
			log.With("error", err, "path", entry.Path).Warn("[assets]: deleting stored object failed")
		}
	}
}

func (s *Service) clearCache(ctx context.Context) {
	if s.cache == nil || !s.cfg.CacheAutoPurge {
		return
	}

	if err := s.cache.Clear(ctx); err != nil {
		s.log.WithContext(ctx).With("error", err).Warn("[assets]: clearing cache failed")
	}
}

func (s *Service) publishFile(ctx context.Context, event events.FileEvent) {
	if s.events == nil {
		return
	}

	event.OccurredAt = time.Now()
	if event.Actor == "" {
		event.Actor = meta.Find(ctx, meta.RequestUserID)
	}

	if err := s.events.PublishFileEvent(ctx, event); err != nil {
		s.log.WithContext(ctx).With("error", err, "action", event.Action).Warn("[assets]: publishing file event failed")
	}
}
