package outbox

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"

	"github.com/meridiancms/mediacore/observability/logger"
)

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

// loggerAdapter bridges the project logger into watermill's LoggerAdapter.
// Watermill's Trace level maps onto Debug; the logger has nothing finer.
type loggerAdapter struct {
	base logger.Logger
}

func newLoggerAdapter(base logger.Logger) *loggerAdapter {
	return &loggerAdapter{base: base}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.enriched(fields).With("error", err).Error(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.enriched(fields).Info(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.enriched(fields).Debug(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.enriched(fields).Debug(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{base: l.enriched(fields)}
}

func (l *loggerAdapter) enriched(fields watermill.LogFields) logger.Logger {
	log := l.base
	for k, v := range fields {
		log = log.With(zap.Any(k, v))
	}
	return log
}
