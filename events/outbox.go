package events

import (
	"context"
	"database/sql"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/meridiancms/mediacore/outbox"
)

var (
	_ Publisher   = (*OutboxPublisher)(nil)
	_ TxPublisher = (*OutboxPublisher)(nil)
)

// OutboxPublisher stages events as outbox rows, so they reach the broker
// exactly when the surrounding transaction commits. The outbox worker does
// the actual forwarding.
type OutboxPublisher struct {
	producer *outbox.Producer
	db       *bun.DB
}

// NewOutboxPublisher creates a publisher writing to the outbox table of db.
func NewOutboxPublisher(db *bun.DB) *OutboxPublisher {
	return &OutboxPublisher{
		producer: outbox.NewProducer(),
		db:       db,
	}
}

// PublishFieldEventTx stages the event inside the caller's transaction.
func (p *OutboxPublisher) PublishFieldEventTx(ctx context.Context, idb bun.IDB, event FieldEvent) error {
	return errx.Wrap(p.producer.Produce(ctx, idb, TopicFields, event.Key(), event))
}

// PublishFileEvent stages the event in its own short transaction. Callers
// already holding a transaction should prefer the Tx variants.
func (p *OutboxPublisher) PublishFileEvent(ctx context.Context, event FileEvent) error {
	return p.produceInTx(ctx, TopicFiles, event.Key(), event)
}

// PublishFieldEvent stages the event in its own short transaction.
func (p *OutboxPublisher) PublishFieldEvent(ctx context.Context, event FieldEvent) error {
	return p.produceInTx(ctx, TopicFields, event.Key(), event)
}

func (p *OutboxPublisher) produceInTx(ctx context.Context, topic, key string, event any) error {
	err := p.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return p.producer.Produce(ctx, tx, topic, key, event)
	})
	return errx.Wrap(err)
}
