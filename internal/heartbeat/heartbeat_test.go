package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/launart"
)

func TestLaunchDoesNotTickBeforeFirstScheduledFire(t *testing.T) {
	svc := New(config.HeartbeatConfig{Schedule: "@every 1s"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Launch(ctx, nil)
	require.NoError(t, err)

	v, ok := svc.Ticks().Get(StatTick)
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestNewDeclaresBlockingOnly(t *testing.T) {
	svc := New(config.HeartbeatConfig{})
	assert.Equal(t, ID, svc.ID())
	_, hasBlocking := svc.Stages()[launart.StageBlocking]
	assert.True(t, hasBlocking)
}
