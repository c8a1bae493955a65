package kafka

import (
	"context"
	"strings"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/dnwe/otelsarama"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
)

// Message is one record to produce: key, value and optional headers.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer publishes messages to a single Kafka topic through a sarama
// sync producer wrapped with OpenTelemetry instrumentation.
type Producer struct {
	cfg          ProducerConfig
	topic        string
	saramaCfg    *sarama.Config
	syncProducer sarama.SyncProducer
}

// NewProducer connects a sync producer for topic. The client identity
// comes from meta.SetServiceInfo through the sarama config.
func NewProducer(cfg ProducerConfig, topic string) (*Producer, error) {
	saramaCfg, err := cfg.getSaramaConfig()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	producer, err := sarama.NewSyncProducer(strings.Split(cfg.Brokers, ","), saramaCfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Producer{
		cfg:          cfg,
		topic:        topic,
		saramaCfg:    saramaCfg,
		syncProducer: otelsarama.WrapSyncProducer(saramaCfg, producer),
	}, nil
}

// SendMessage produces one message and waits for the broker ack.
func (p *Producer) SendMessage(ctx context.Context, m *Message) error {
	msg := p.toSaramaMessage(ctx, m)

	partition, offset, err := p.syncProducer.SendMessage(msg)
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"topic":     msg.Topic,
			"partition": partition,
			"offset":    offset,
			"message":   msg,
		}))
	}
	return nil
}

// SendMessages produces a batch and waits for all acks.
func (p *Producer) SendMessages(ctx context.Context, messages []Message) error {
	batch := lo.Map(messages, func(m Message, _ int) *sarama.ProducerMessage {
		return p.toSaramaMessage(ctx, &m)
	})

	if err := p.syncProducer.SendMessages(batch); err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"topic":    p.topic,
			"messages": messages,
		}))
	}
	return nil
}

// Close shuts the underlying sync producer down.
func (p *Producer) Close() error {
	return errx.Wrap(p.syncProducer.Close())
}

func (p *Producer) toSaramaMessage(ctx context.Context, m *Message) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(m.Key),
		Value: sarama.ByteEncoder(m.Value),
	}

	for k, v := range m.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	// the trace context travels in message headers so consumers can
	// continue the producing span
	otel.GetTextMapPropagator().Inject(ctx, otelsarama.NewProducerMessageCarrier(msg))

	return msg
}
