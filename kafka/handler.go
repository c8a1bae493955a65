package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/mask"
	"github.com/meridiancms/mediacore/observability/logger"
)

// JSONHandler adapts a typed event handler into a HandleFunc by decoding
// each consumed message value as JSON into E.
func JSONHandler[E any](handle func(ctx context.Context, event *E) error) HandleFunc {
	return func(ctx context.Context, cm *sarama.ConsumerMessage) error {
		event := new(E)

		err := json.Unmarshal(cm.Value, event)
		if err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{
				"topic": cm.Topic,
			}))
		}

		log := logger.
			Named("kafka.debug_logger").
			WithContext(ctx).
			With("event", mask.Struct(event))

		err = handle(ctx, event)
		if err != nil {
			log.Errorx(err)
			return errx.Wrap(err)
		}

		log.Debug(nil)
		return nil
	}
}
