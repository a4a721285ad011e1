package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/ioc"
)

func TestDataTypeSkipsMismatchedPayloadWhenNotStrict(t *testing.T) {
	var called bool
	cb := DataType(func(ctx context.Context, io ioc.PacketIO, data string) error {
		called = true
		return nil
	}, false)

	err := cb(context.Background(), ioc.WebsocketReceivedEvent{Payload: []byte("binary")})
	require.NoError(t, err)
	assert.False(t, called)

	err = cb(context.Background(), ioc.WebsocketReceivedEvent{Payload: "text"})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestDataTypeErrorsOnMismatchWhenStrict(t *testing.T) {
	cb := DataType(func(ctx context.Context, io ioc.PacketIO, data string) error {
		return nil
	}, true)

	err := cb(context.Background(), ioc.WebsocketReceivedEvent{Payload: 42})
	assert.Error(t, err)
}

func TestJSONReceivedDecodesTextFrame(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var got payload
	cb := JSONReceived(func(ctx context.Context, io ioc.PacketIO, data payload) error {
		got = data
		return nil
	})

	err := cb(context.Background(), ioc.WebsocketReceivedEvent{Payload: `{"name":"hi"}`})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Name)
}
