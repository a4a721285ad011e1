package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
)

func TestRegistrarMergeOverridesHandlersAppendsCallbacks(t *testing.T) {
	base := NewRegistrar().
		Handle(ioc.SigWebsocketReconnect, func(ctx context.Context, args ...any) (any, error) { return false, nil }).
		On(ioc.SigWebsocketConnect, func(ctx context.Context, args ...any) error { return nil }).
		Declare(ioc.WebsocketEndpoint("/base"))

	derived := NewRegistrar().
		Merge(base).
		Handle(ioc.SigWebsocketReconnect, func(ctx context.Context, args ...any) (any, error) { return true, nil }).
		On(ioc.SigWebsocketConnect, func(ctx context.Context, args ...any) error { return nil }).
		Declare(ioc.WebsocketEndpoint("/derived"))

	tr := derived.Build("derived")

	h, err := tr.GetHandler(ioc.SigWebsocketReconnect)
	require.NoError(t, err)
	v, err := h(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, v, "derived's handler overrides the base's")

	assert.Len(t, tr.GetCallbacks(ioc.SigWebsocketConnect), 2, "callbacks append across merges")
	assert.Len(t, tr.Declares(), 2, "declares append across merges")
}

func TestTransportGetHandlerMissing(t *testing.T) {
	tr := NewRegistrar().Build("empty")
	_, err := tr.GetHandler(ioc.SigWebsocketReconnect)
	assert.ErrorIs(t, err, launart.ErrNoHandler)
}
