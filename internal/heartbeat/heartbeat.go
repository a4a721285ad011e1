// Package heartbeat implements a "heartbeat/cron" Launchable: a robfig/cron
// schedule that ticks a Statv stat on every fire, demonstrating a
// blocking-only component with no prepare/cleanup work of its own.
// Grounded on spec §6's naming convention for demonstration Services.
package heartbeat

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/statv"
)

// ID is the component id this Service registers under.
const ID = "heartbeat/cron"

// StatTick is the Statv stat incremented on every scheduled fire.
const StatTick = "ticks"

// Service is the heartbeat Launchable.
type Service struct {
	launart.Base

	cfg   config.HeartbeatConfig
	ticks *statv.Statv
}

var descriptors = []statv.Descriptor{
	{ID: StatTick, Default: 0},
}

// New constructs the heartbeat Service from cfg.
func New(cfg config.HeartbeatConfig) *Service {
	ticks, _ := statv.New(descriptors, nil)
	return &Service{
		Base:  launart.NewBase(ID, nil, launart.StageBlocking),
		cfg:   cfg,
		ticks: ticks,
	}
}

// Ticks exposes the Statv tracking the tick counter, so other components
// can WaitForUpdate/WaitUntil on it or read its current value.
func (s *Service) Ticks() *statv.Statv { return s.ticks }

// Launch runs the cron schedule until ctx is cancelled. It participates in
// blocking only: SetPrepare and SetBlocking happen immediately since there
// is no connection to establish first.
func (s *Service) Launch(ctx context.Context, mgr *launart.Manager) error {
	schedule := s.cfg.Schedule
	if schedule == "" {
		schedule = "@every 30s"
	}

	s.Status().SetPrepare()
	s.Status().SetBlocking()

	c := cron.New()
	count := 0
	_, err := c.AddFunc(schedule, func() {
		count++
		s.ticks.Set(StatTick, count)
	})
	if err != nil {
		return fmt.Errorf("heartbeat: parse schedule %q: %w", schedule, err)
	}

	c.Start()
	defer c.Stop()

	<-ctx.Done()
	return nil
}
