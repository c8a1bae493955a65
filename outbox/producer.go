package outbox

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/dnwe/otelsarama"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

// Producer appends message envelopes to the outbox table. Produce must run
// inside the caller's transaction so the envelope commits atomically with
// the domain change it announces.
type Producer struct {
	tableName string
}

// NewProducer creates a new outbox producer.
func NewProducer() *Producer {
	return &Producer{
		tableName: outboxTableName,
	}
}

// Produce marshals payload as JSON and stages it for delivery to topic.
// The key selects the Kafka partition, so events sharing a key keep their
// relative order.
func (p *Producer) Produce(
	ctx context.Context,
	idb bun.IDB,
	topic, key string,
	payload any,
) error {
	if _, ok := idb.(bun.Tx); !ok {
		return errx.New("[outbox]: idb must be a bun.Tx instance")
	}

	envelope, err := buildEnvelope(ctx, topic, key, payload)
	if err != nil {
		return errx.Wrap(err)
	}

	// The forwarder unwraps the envelope, so the stored payload
	// must be the marshaled envelope itself.
	envelopeBytes, err := json.Marshal(envelope)
	if err != nil {
		return errx.Wrap(err)
	}

	row := outboxRow{
		UUID:     envelope.UUID,
		Payload:  envelopeBytes,
		Metadata: map[string]string{}, // row metadata is not used, the envelope carries its own
	}

	_, err = idb.NewInsert().
		ModelTableExpr(p.tableName).
		Model(&row).
		Value("transaction_id", "pg_current_xact_id()"). // Current transaction ID
		Exec(ctx)

	return errx.Wrap(err)
}

func buildEnvelope(ctx context.Context, topic, key string, payload any) (*messageEnvelope, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	envelope := &messageEnvelope{
		DestinationTopic: topic,
		UUID:             uuid.NewString(),
		Payload:          payloadBytes,
		Metadata: map[string]string{
			"partition_key": key,
		},
	}

	injectTracingHeaders(ctx, key, envelope)

	return envelope, nil
}

func injectTracingHeaders(ctx context.Context, key string, envelope *messageEnvelope) {
	tempMsg := &sarama.ProducerMessage{
		Topic: envelope.DestinationTopic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(envelope.Payload),
	}

	// inject OpenTelemetry tracing context
	propagator := otel.GetTextMapPropagator()
	propagator.Inject(ctx, otelsarama.NewProducerMessageCarrier(tempMsg))

	// copy tracing headers from kafka message to envelope metadata
	for _, header := range tempMsg.Headers {
		envelope.Metadata[string(header.Key)] = string(header.Value)
	}
}

// messageEnvelope wraps the payload and contains the destination topic.
// The field layout must match the forwarder's envelope format.
type messageEnvelope struct {
	DestinationTopic string            `json:"destination_topic"`
	UUID             string            `json:"uuid"`
	Payload          []byte            `json:"payload"`
	Metadata         map[string]string `json:"metadata"`
}

// outboxRow represents the single outbox message to be stored in the database.
type outboxRow struct {
	UUID     string            `bun:"uuid"`
	Payload  []byte            `bun:"payload"`
	Metadata map[string]string `bun:"metadata"`
}
