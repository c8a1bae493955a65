package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/observability/logger"
)

// HandleFunc processes one consumed message. It sits at the core of the
// handler chain; everything around it (recovery, tracing, retry, ...) is
// added by the consumer itself.
type HandleFunc func(context.Context, *sarama.ConsumerMessage) error

// Consumer is a consumer-group consumer bound to a single topic.
type Consumer struct {
	cfg           ConsumerConfig
	topic         string
	saramaCfg     *sarama.Config
	logger        logger.Logger
	consumerGroup sarama.ConsumerGroup
	handleFn      HandleFunc
}

// NewConsumer joins the configured consumer group for topic.
func NewConsumer(cfg ConsumerConfig, topic string, handleFn HandleFunc) (*Consumer, error) {
	saramaCfg, err := cfg.getSaramaConfig()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	consumerGroup, err := sarama.NewConsumerGroup(strings.Split(cfg.Brokers, ","), cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Consumer{
		cfg:           cfg,
		topic:         topic,
		saramaCfg:     saramaCfg,
		logger:        logger.Named("kafka.consumer"),
		consumerGroup: consumerGroup,
		handleFn:      handleFn,
	}, nil
}

// Start joins the group and consumes until Stop closes it. Each rebalance
// returns from Consume and re-enters it, which is sarama's expected loop.
func (c *Consumer) Start() error {
	for {
		err := c.consumerGroup.Consume(context.Background(), []string{c.topic}, c)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errx.Wrap(err)
		}

		c.logger.Info("[kafka] rebalancing occurred, waiting for new messages")
	}
}

// Stop leaves the consumer group, which unblocks Start.
func (c *Consumer) Stop() error {
	return errx.Wrap(c.consumerGroup.Close())
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler: it drains one
// partition claim through the handler chain. Sarama already runs it in its
// own goroutine, one per claimed partition.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	chain := c.buildHandlerChain()

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			// chain errors are fully handled inside the chain
			// (logged, alerted, retried); the offset advances
			// regardless so one poison message cannot stall the
			// partition
			_ = chain(context.Background(), message)
			session.MarkMessage(message, "")

		// exiting on session close keeps rebalances from raising
		// ErrRebalanceInProgress (sarama#1192)
		case <-session.Context().Done():
			return nil
		}
	}
}

// buildHandlerChain wraps the injected handler, innermost first. The
// outermost wrapper runs first on delivery.
func (c *Consumer) buildHandlerChain() HandleFunc {
	handler := c.handleFn

	handler = c.handlerWithErrorHandling(handler) // 8. error normalization
	handler = c.handlerWithRetry(handler)         // 7. retry
	handler = c.handlerWithLogging(handler)       // 6. logging
	handler = c.handlerWithAlerting(handler)      // 5. alerting
	handler = c.handlerWithMetaInjection(handler) // 4. request meta
	handler = c.handlerWithTimeout(handler)       // 3. timeout
	handler = c.handlerWithTracing(handler)       // 2. tracing
	handler = c.handlerWithRecovery(handler)      // 1. recovery (outermost)

	return handler
}
