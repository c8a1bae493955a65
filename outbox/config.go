// Package outbox implements transactional event publishing over PostgreSQL.
//
// Producers append message envelopes to the _outbox table inside the same
// transaction as the domain change. A separate worker polls the table and
// forwards committed envelopes to their destination Kafka topics, so an
// event is visible on the broker if and only if the transaction committed.
package outbox

import (
	"time"

	"github.com/meridiancms/mediacore/meta"
)

const (
	outboxTableName = "_outbox"
	offsetTableName = "_outbox_offset"
)

// WorkerConfig holds configuration for the outbox forwarding worker.
type WorkerConfig struct {
	Brokers string `yaml:"brokers" validate:"required"`

	// If not set defaults to the service name.
	ConsumerGroup string `yaml:"consumer_group"`

	PollInterval   time.Duration `yaml:"poll_interval"   default:"500ms"`
	RetryInterval  time.Duration `yaml:"retry_interval"  default:"1s"`
	ResendInterval time.Duration `yaml:"resend_interval" default:"1s"`
	BatchSize      int           `yaml:"batch_size"      default:"100"`
}

func (c *WorkerConfig) consumerGroup() string {
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = meta.GetServiceName()
	}
	return c.ConsumerGroup
}
