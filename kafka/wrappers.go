package kafka

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/IBM/sarama"
	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/dnwe/otelsarama"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridiancms/mediacore/meta"
	"github.com/meridiancms/mediacore/observability/alert"
	"github.com/meridiancms/mediacore/observability/tracing"
)

// extendedContextTimeout bounds work that must outlive the message context,
// such as sending alerts after the handler already failed.
const extendedContextTimeout = 3 * time.Second

// handlerWithRecovery is a wrapper around the handler to add recovery support
func (c *Consumer) handlerWithRecovery(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := make([]byte, 4096) // 4KB
				stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

				c.logger.
					Named("recovery").
					WithContext(ctx).
					With("stack_trace", string(stackTrace)).
					With("panic_values", fmt.Sprintf("%v", r)).
					Error("[kafka] panic recovered in consumer handler")

				err = errx.New("panic recovered in consumer handler", errx.WithDetails(errx.D{
					"stack_trace":  string(stackTrace),
					"panic_values": fmt.Sprintf("%v", r),
				}))
			}
		}()
		return next(ctx, msg)
	}
}

// handlerWithTracing is a wrapper around the handler to add tracing support
func (c *Consumer) handlerWithTracing(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
		// extract tracing info from headers
		ctx = otel.GetTextMapPropagator().Extract(ctx, otelsarama.NewConsumerMessageCarrier(msg))

		// start a new span
		ctx, span := otel.Tracer("").Start(ctx, fmt.Sprintf("kafka.%s.consume", msg.Topic),
			trace.WithAttributes(
				semconv.MessagingSystem("kafka"),
				semconv.MessagingKafkaConsumerGroup(c.cfg.GroupID),
				semconv.MessagingOperationProcess,
				semconv.MessagingMessageID(string(msg.Key)),
			),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)

		defer func() {
			// end the span
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		// call the next handler
		return next(ctx, msg)
	}
}

// handlerWithTimeout is a wrapper around the handler to add timeout support
func (c *Consumer) handlerWithTimeout(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
		defer cancel()
		return next(ctx, msg)
	}
}

// handlerWithMetaInjection is a wrapper around the handler to add request meta injection
func (c *Consumer) handlerWithMetaInjection(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		metaData := map[meta.ContextKey]string{
			meta.TraceID:        tracing.GetStartingTraceID(ctx),
			meta.ServiceName:    meta.GetServiceName(),
			meta.ServiceVersion: meta.GetServiceVersion(),
		}

		// add meta to context for downstream handlers
		ctx = meta.Inject(ctx, metaData)

		return next(ctx, msg)
	}
}

// handlerWithAlerting is a wrapper around the handler to add alerting
func (c *Consumer) handlerWithAlerting(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		logger := c.logger.Named("alerting").WithContext(ctx)

		err := next(ctx, msg)
		if err == nil {
			return nil
		}

		e := errx.AsErrorX(err)

		operation := fmt.Sprintf("consumer topic -> %s", msg.Topic)
		details := make(map[string]string)
		metaCtx := meta.Extract(ctx)
		for k, v := range metaCtx {
			details[string(k)] = v
		}
		details["error_type"] = e.Type().String()
		details["error_trace"] = e.Trace()

		alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), extendedContextTimeout)

		go func() {
			defer cancel()

			sendErr := alert.SendError(alertCtx, e.Code(), err.Error(), operation, details)
			if sendErr != nil {
				logger.With("send_error", sendErr).Warn("[kafka] failed to send error alert")
			}
		}()

		return err
	}
}

// handlerWithLogging is a wrapper around the handler to add logging
func (c *Consumer) handlerWithLogging(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
		logger := c.logger.Named("access_logger").WithContext(ctx)

		start := time.Now()

		// extra recovery for catching panic in earlier steps of the handler
		withRecovery := c.handlerWithRecovery(next)
		err = withRecovery(ctx, msg)

		duration := time.Since(start)

		headers := lo.SliceToMap(msg.Headers, func(h *sarama.RecordHeader) (string, string) {
			return string(h.Key), string(h.Value)
		})

		logger = logger.With(
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"duration", duration.String(),
			"headers", headers,
		)

		logMsg := "consumed incoming kafka message"
		if err != nil {
			logger.With("error", getErrObject(err)).Error(logMsg)
		} else {
			logger.Info(logMsg)
		}

		return err
	}
}

// handlerWithErrorHandling is a wrapper around the handler to normalize errors
// TODO: Handle errors more gracefully. For example: Use dead letter queue
func (c *Consumer) handlerWithErrorHandling(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		// make any error as internal
		return errx.Wrap(next(ctx, msg), errx.WithType(errx.T_Internal))
	}
}

// handlerWithRetry is a wrapper around the handler to add retry support with backoff and jitter
func (c *Consumer) handlerWithRetry(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		if c.cfg.RetryDisabled {
			return next(ctx, msg)
		}

		logger := c.logger.Named("retry").WithContext(ctx)

		// configure retry with backoff and jitter
		err := retry.Do(
			func() error {
				return next(ctx, msg)
			},
			retry.Attempts(uint(c.cfg.RetryCount)),
			retry.Delay(c.cfg.RetryDelay),
			retry.MaxJitter(100*time.Millisecond),
			retry.LastErrorOnly(true), // only return the last error
			retry.OnRetry(func(n uint, err error) {
				logger.
					With("error", getErrObject(err)).
					With("attempt", n+1).
					With("max_attempts", c.cfg.RetryCount).
					Warn("[kafka] retrying message handling")
			}),
			retry.Context(ctx), // response to context cancellation
		)

		return err
	}
}

func getErrObject(err error) any {
	e := errx.AsErrorX(err)
	return map[string]any{
		"code":    e.Code(),
		"message": e.Error(),
		"type":    e.Type().String(),
		"trace":   e.Trace(),
		"fields":  e.Fields(),
		"details": e.Details(),
	}
}
