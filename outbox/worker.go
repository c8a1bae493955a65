package outbox

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/meridiancms/mediacore/observability/alert"
	"github.com/meridiancms/mediacore/observability/logger"
)

// Worker moves committed outbox envelopes onto their destination Kafka
// topics. It polls the outbox table through a watermill-sql subscriber and
// unwraps envelopes with the watermill forwarder; the offsets table makes
// restarts resume where the previous run stopped.
type Worker struct {
	forwarder *forwarder.Forwarder
	publisher message.Publisher
}

// NewWorker assembles the subscriber, the Kafka publisher and the
// forwarder between them. The outbox and offsets tables are created on
// first start when missing.
func NewWorker(
	cfg WorkerConfig,
	pool *pgxpool.Pool,
	log logger.Logger,
	alertProvider alert.Provider,
) (*Worker, error) {
	wmLogger := newLoggerAdapter(log.Named("outbox"))
	db := stdlib.OpenDBFromPool(pool)

	subscriber, err := newSubscriber(cfg, db, wmLogger)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	publisher, err := newPublisher(cfg, wmLogger)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	fwd, err := forwarder.NewForwarder(subscriber, publisher, wmLogger, forwarder.Config{
		ForwarderTopic: outboxTableName,
		Middlewares: []message.HandlerMiddleware{
			newAlertMiddleware(alertProvider, wmLogger),
		},
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Worker{
		forwarder: fwd,
		publisher: publisher,
	}, nil
}

// Start runs the forwarding loop until Stop is called.
func (w *Worker) Start() error {
	return w.forwarder.Run(context.Background())
}

// Stop closes the forwarder, then the Kafka publisher behind it.
func (w *Worker) Stop() error {
	if err := w.forwarder.Close(); err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(w.publisher.Close())
}

func newSubscriber(cfg WorkerConfig, db sql.Beginner, wmLogger watermill.LoggerAdapter) (*sql.Subscriber, error) {
	subscriber, err := sql.NewSubscriber(db, sql.SubscriberConfig{
		ConsumerGroup:  cfg.consumerGroup(),
		BackoffManager: sql.NewDefaultBackoffManager(cfg.PollInterval, cfg.RetryInterval),
		AckDeadline:    nil,
		ResendInterval: cfg.ResendInterval,
		SchemaAdapter: sql.DefaultPostgreSQLSchema{
			// every topic maps onto the one outbox table; the real
			// destination topic lives inside the envelope
			GenerateMessagesTableName: func(string) string {
				return outboxTableName
			},
			SubscribeBatchSize: cfg.BatchSize,
		},
		OffsetsAdapter: sql.DefaultPostgreSQLOffsetsAdapter{
			GenerateMessagesOffsetsTableName: func(string) string {
				return offsetTableName
			},
		},
		InitializeSchema: true,
	}, wmLogger)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return subscriber, nil
}

func newPublisher(cfg WorkerConfig, wmLogger watermill.LoggerAdapter) (message.Publisher, error) {
	saramaCfg := wkafka.DefaultSaramaSyncPublisherConfig()
	saramaCfg.ClientID = cfg.consumerGroup()

	// partition by the key the producer stored in the envelope metadata,
	// so events about one entity stay ordered
	marshaler := wkafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
		partitionKey := msg.Metadata.Get("partition_key")
		if partitionKey == "" {
			return "", errx.New("partition key is empty")
		}
		return partitionKey, nil
	})

	publisher, err := wkafka.NewPublisher(strings.Split(cfg.Brokers, ","), marshaler, saramaCfg, wmLogger)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return publisher, nil
}

// newAlertMiddleware reports delivery failures before they are retried.
func newAlertMiddleware(alertProvider alert.Provider, wmLogger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(next message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			messages, err := next(msg)
			if err == nil {
				return messages, nil
			}

			details := map[string]string{"message_uuid": msg.UUID}
			if sendErr := alertProvider.SendError(
				context.Background(), "", err.Error(), "outbox_worker", details,
			); sendErr != nil {
				wmLogger.Error("failed to send error alert", sendErr, nil)
			}

			return nil, err
		}
	}
}
