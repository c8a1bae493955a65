package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/meta"
)

func TestConsumerConfigInitialOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset string
		want   int64
	}{
		{name: "newest", offset: "newest", want: sarama.OffsetNewest},
		{name: "oldest", offset: "oldest", want: sarama.OffsetOldest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConsumerConfig{
				Brokers:       "localhost:9092",
				GroupID:       "media-core",
				KafkaVersion:  "3.6.0",
				InitialOffset: tt.offset,
			}

			saramaCfg, err := cfg.getSaramaConfig()

			require.NoError(t, err)
			assert.Equal(t, tt.want, saramaCfg.Consumer.Offsets.Initial)
			assert.Equal(t, sarama.V3_6_0_0, saramaCfg.Version)
			assert.Equal(t, "media-core", saramaCfg.ClientID)
		})
	}
}

func TestConsumerConfigUnknownInitialOffset(t *testing.T) {
	cfg := ConsumerConfig{
		Brokers:       "localhost:9092",
		GroupID:       "media-core",
		KafkaVersion:  "3.6.0",
		InitialOffset: "latest",
	}

	_, err := cfg.getSaramaConfig()

	require.Error(t, err)
	assert.Equal(t, "latest", errx.AsErrorX(err).Details()["initial_offset"])
}

func TestConsumerConfigBadKafkaVersion(t *testing.T) {
	cfg := ConsumerConfig{
		Brokers:       "localhost:9092",
		GroupID:       "media-core",
		KafkaVersion:  "not-a-version",
		InitialOffset: "newest",
	}

	_, err := cfg.getSaramaConfig()

	require.Error(t, err)
}

func TestConsumerConfigSASL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		enabled  bool
	}{
		{name: "both credentials set", username: "svc", password: "secret", enabled: true},
		{name: "username only", username: "svc", enabled: false},
		{name: "password only", password: "secret", enabled: false},
		{name: "no credentials", enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConsumerConfig{
				Brokers:       "localhost:9092",
				GroupID:       "media-core",
				SaslUsername:  tt.username,
				SaslPassword:  tt.password,
				KafkaVersion:  "3.6.0",
				InitialOffset: "newest",
			}

			saramaCfg, err := cfg.getSaramaConfig()

			require.NoError(t, err)
			assert.Equal(t, tt.enabled, saramaCfg.Net.SASL.Enable)
			if tt.enabled {
				assert.EqualValues(t, sarama.SASLTypePlaintext, saramaCfg.Net.SASL.Mechanism)
				assert.Equal(t, tt.username, saramaCfg.Net.SASL.User)
				assert.Equal(t, tt.password, saramaCfg.Net.SASL.Password)
			}
		})
	}
}

func TestProducerConfigSyncReturns(t *testing.T) {
	cfg := ProducerConfig{
		Brokers:      "localhost:9092",
		KafkaVersion: "3.6.0",
	}

	saramaCfg, err := cfg.getSaramaConfig()

	require.NoError(t, err)
	assert.True(t, saramaCfg.Producer.Return.Successes)
	assert.True(t, saramaCfg.Producer.Return.Errors)
}

func TestConsumerGroupDefaultsToServiceName(t *testing.T) {
	meta.SetServiceInfo("media-events", "1.2.3")

	cfg := ConsumerConfig{
		Brokers:       "localhost:9092",
		KafkaVersion:  "3.6.0",
		InitialOffset: "newest",
	}

	saramaCfg, err := cfg.getSaramaConfig()

	require.NoError(t, err)
	assert.Equal(t, "media-events", cfg.GroupID)
	assert.Equal(t, "media-events", saramaCfg.ClientID)
}
