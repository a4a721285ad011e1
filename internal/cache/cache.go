// Package cache implements a "cache.client/redis" Launchable: a
// go-redis-backed key/value cache that prepares its connection, blocks
// until shut down, and closes the client on cleanup. Grounded on spec §6's
// naming convention for demonstration Services layered over launart.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/launart"
)

// ID is the component id this Service registers under.
const ID = "cache.client/redis"

// Service is the cache Launchable. Other components depend on ID and hold
// the *Service pointer to reach Client after it has prepared; Service does
// not implement launart.Service, so GetInterface cannot resolve it.
type Service struct {
	launart.Base

	cfg    config.CacheConfig
	client *redis.Client
}

// New constructs the cache Service from cfg. It participates in prepare,
// blocking and cleanup: once connected, it has nothing further to do in
// blocking, so blocking simply waits for shutdown.
func New(cfg config.CacheConfig) *Service {
	return &Service{
		Base: launart.NewBase(ID, nil, launart.StagePrepare, launart.StageBlocking, launart.StageCleanup),
		cfg:  cfg,
	}
}

// Client returns the underlying go-redis client. Safe to call once the
// component has reached the blocking stage.
func (s *Service) Client() *redis.Client { return s.client }

// Launch connects during prepare, idles through blocking until ctx is
// cancelled, and closes the connection during cleanup.
func (s *Service) Launch(ctx context.Context, mgr *launart.Manager) error {
	opts := &redis.Options{
		Addr:         s.cfg.Addr,
		Password:     s.cfg.Password,
		DB:           s.cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	s.client = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("cache: connect %s: %w", s.cfg.Addr, err)
	}

	s.Status().SetPrepare()
	s.Status().SetBlocking()

	<-ctx.Done()

	s.Status().SetCleanup()
	defer s.Status().SetFinished()
	return s.client.Close()
}

// Ready pings Redis, satisfying launart.Readyer.
func (s *Service) Ready(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("cache: not yet connected")
	}
	return s.client.Ping(ctx).Err()
}
