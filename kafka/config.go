package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/meta"
)

const (
	newestOffset = "newest"
	oldestOffset = "oldest"
)

// ConsumerConfig holds the settings of a consumer-group consumer.
type ConsumerConfig struct {
	Brokers      string `yaml:"brokers"       validate:"required"`
	SaslUsername string `yaml:"sasl_username"`
	SaslPassword string `yaml:"sasl_password"                     mask:"true"`

	// GroupID defaults to the service name when left empty.
	GroupID string `yaml:"group_id"`

	KafkaVersion  string `yaml:"kafka_version"  default:"3.6.0"`
	InitialOffset string `yaml:"initial_offset" default:"newest" validate:"oneof=newest oldest"`

	// HandlerTimeout bounds one message delivery through the handler chain.
	HandlerTimeout time.Duration `yaml:"handler_timeout" default:"30s"`

	RetryDisabled bool          `yaml:"retry_disabled"`
	RetryCount    int           `yaml:"retry_count"     default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay"     default:"2s"`
}

func (c *ConsumerConfig) getSaramaConfig() (*sarama.Config, error) {
	if c.GroupID == "" {
		c.GroupID = meta.GetServiceName()
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = c.GroupID

	version, err := sarama.ParseKafkaVersion(c.KafkaVersion)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	saramaCfg.Version = version

	applySASL(saramaCfg, c.SaslUsername, c.SaslPassword)

	switch c.InitialOffset {
	case newestOffset:
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	case oldestOffset:
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		return nil, errx.New("[kafka] unknown initial offset", errx.WithDetails(errx.D{
			"initial_offset": c.InitialOffset,
		}))
	}

	return saramaCfg, nil
}

// ProducerConfig holds the settings of a sync producer.
type ProducerConfig struct {
	Brokers      string `yaml:"brokers"       validate:"required"`
	SaslUsername string `yaml:"sasl_username"`
	SaslPassword string `yaml:"sasl_password"                     mask:"true"`

	KafkaVersion string `yaml:"kafka_version" default:"3.6.0"`
}

func (c *ProducerConfig) getSaramaConfig() (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = meta.GetServiceName()

	version, err := sarama.ParseKafkaVersion(c.KafkaVersion)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	saramaCfg.Version = version

	applySASL(saramaCfg, c.SaslUsername, c.SaslPassword)

	// sync producers require both return channels
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true

	return saramaCfg, nil
}

// applySASL enables SASL_PLAINTEXT when credentials are present. Other
// mechanisms are not supported.
func applySASL(cfg *sarama.Config, username, password string) {
	if username == "" || password == "" {
		return
	}
	cfg.Net.SASL.Enable = true
	cfg.Net.SASL.User = username
	cfg.Net.SASL.Password = password
	cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
}
