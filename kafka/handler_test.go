package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandlerDecodesAndDelegates(t *testing.T) {
	type fileEvent struct {
		ID     string `json:"id"`
		Action string `json:"action"`
	}

	var got *fileEvent
	handle := JSONHandler(func(_ context.Context, event *fileEvent) error {
		got = event
		return nil
	})

	msg := &sarama.ConsumerMessage{
		Topic: "cms.files",
		Value: []byte(`{"id":"f-1","action":"upload"}`),
	}

	err := handle(context.Background(), msg)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "f-1", got.ID)
	assert.Equal(t, "upload", got.Action)
}

func TestJSONHandlerRejectsMalformedPayload(t *testing.T) {
	called := false
	handle := JSONHandler(func(_ context.Context, _ *struct{}) error {
		called = true
		return nil
	})

	msg := &sarama.ConsumerMessage{
		Topic: "cms.files",
		Value: []byte("{not json"),
	}

	err := handle(context.Background(), msg)

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, "cms.files", errx.AsErrorX(err).Details()["topic"])
}

func TestJSONHandlerPropagatesHandlerError(t *testing.T) {
	handle := JSONHandler(func(_ context.Context, _ *struct{}) error {
		return errx.New("downstream failed", errx.WithCode("DOWNSTREAM"))
	})

	msg := &sarama.ConsumerMessage{
		Topic: "cms.files",
		Value: []byte(`{}`),
	}

	err := handle(context.Background(), msg)

	require.Error(t, err)
	assert.Equal(t, "DOWNSTREAM", errx.AsErrorX(err).Code())
}
