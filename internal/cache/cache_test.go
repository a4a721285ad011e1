package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/launart"
)

func TestNewDeclaresPrepareBlockingCleanup(t *testing.T) {
	svc := New(config.CacheConfig{Addr: "localhost:6379"})

	assert.Equal(t, ID, svc.ID())
	_, hasPrepare := svc.Stages()[launart.StagePrepare]
	_, hasBlocking := svc.Stages()[launart.StageBlocking]
	_, hasCleanup := svc.Stages()[launart.StageCleanup]
	assert.True(t, hasPrepare)
	assert.True(t, hasBlocking)
	assert.True(t, hasCleanup)
}

func TestReadyFailsBeforeConnect(t *testing.T) {
	svc := New(config.CacheConfig{Addr: "localhost:6379"})
	assert.Error(t, svc.Ready(nil))
}
