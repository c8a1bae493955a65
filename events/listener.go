package events

import (
	"context"

	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/cache"
	"github.com/meridiancms/mediacore/kafka"
	"github.com/meridiancms/mediacore/observability/logger"
)

// CacheListener keeps a local cache coherent across instances: every file
// or field event published by a peer clears this instance's cache.
type CacheListener struct {
	files  *kafka.Consumer
	fields *kafka.Consumer
	cache  cache.Invalidator
	log    logger.Logger
}

// NewCacheListener creates consumers on both event topics. Each instance
// should run with its own consumer group, otherwise only one instance per
// group sees the events.
func NewCacheListener(
	cfg kafka.ConsumerConfig,
	invalidator cache.Invalidator,
	log logger.Logger,
) (*CacheListener, error) {
	if invalidator == nil {
		return nil, errx.New("[events]: invalidator is required")
	}
	if log == nil {
		log = logger.Named("events.cache_listener")
	}

	l := &CacheListener{
		cache: invalidator,
		log:   log,
	}

	files, err := kafka.NewConsumer(cfg, TopicFiles, kafka.JSONHandler(l.onFileEvent))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	fields, err := kafka.NewConsumer(cfg, TopicFields, kafka.JSONHandler(l.onFieldEvent))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	l.files = files
	l.fields = fields
	return l, nil
}

// Start consumes both topics and blocks until the listener stops or one
// consumer fails.
func (l *CacheListener) Start() error {
	errCh := make(chan error, 2)
	go func() { errCh <- l.files.Start() }()
	go func() { errCh <- l.fields.Start() }()

	// the listener is down as soon as either consumer exits
	err := <-errCh
	if stopErr := l.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	<-errCh

	return errx.Wrap(err)
}

// Stop closes both consumers.
func (l *CacheListener) Stop() error {
	filesErr := l.files.Stop()
	fieldsErr := l.fields.Stop()

	if filesErr != nil {
		return errx.Wrap(filesErr)
	}
	return errx.Wrap(fieldsErr)
}

func (l *CacheListener) onFileEvent(ctx context.Context, event *FileEvent) error {
	return l.clear(ctx, event.Action)
}

func (l *CacheListener) onFieldEvent(ctx context.Context, event *FieldEvent) error {
	return l.clear(ctx, event.Action)
}

func (l *CacheListener) clear(ctx context.Context, action string) error {
	if err := l.cache.Clear(ctx); err != nil {
		// returning the error lets the consumer retry the clear
		return errx.Wrap(err)
	}

	l.log.WithContext(ctx).With("action", action).Debug("[events]: cache cleared")
	return nil
}
