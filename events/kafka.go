package events

import (
	"context"
	"encoding/json"

	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/kafka"
)

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher delivers events straight to the broker. Delivery is
// best-effort: a lost event costs at worst a stale cache entry, never a
// wrong record.
type KafkaPublisher struct {
	files  *kafka.Producer
	fields *kafka.Producer
}

// NewKafkaPublisher creates producers for both event topics.
func NewKafkaPublisher(cfg kafka.ProducerConfig) (*KafkaPublisher, error) {
	files, err := kafka.NewProducer(cfg, TopicFiles)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	fields, err := kafka.NewProducer(cfg, TopicFields)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &KafkaPublisher{
		files:  files,
		fields: fields,
	}, nil
}

func (p *KafkaPublisher) PublishFileEvent(ctx context.Context, event FileEvent) error {
	return p.publish(ctx, p.files, event.Key(), event)
}

func (p *KafkaPublisher) PublishFieldEvent(ctx context.Context, event FieldEvent) error {
	return p.publish(ctx, p.fields, event.Key(), event)
}

func (p *KafkaPublisher) publish(ctx context.Context, producer *kafka.Producer, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errx.Wrap(err)
	}

	return producer.SendMessage(ctx, &kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Close closes both underlying producers.
func (p *KafkaPublisher) Close() error {
	if err := p.files.Close(); err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(p.fields.Close())
}
