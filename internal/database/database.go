// Package database implements a "database/postgres" Launchable: a
// sqlx+lib/pq connection pool that optionally runs golang-migrate
// migrations during prepare, blocks until shut down, and closes the pool
// on cleanup. Grounded on spec §6's naming convention for demonstration
// Services layered over launart.
package database

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/launart"
)

// ID is the component id this Service registers under.
const ID = "database/postgres"

// Service is the database Launchable.
type Service struct {
	launart.Base

	cfg config.DatabaseConfig
	db  *sqlx.DB
}

// New constructs the database Service from cfg.
func New(cfg config.DatabaseConfig) *Service {
	return &Service{
		Base: launart.NewBase(ID, nil, launart.StagePrepare, launart.StageBlocking, launart.StageCleanup),
		cfg:  cfg,
	}
}

// DB returns the underlying *sqlx.DB. Safe to call once the component has
// reached the blocking stage.
func (s *Service) DB() *sqlx.DB { return s.db }

// Launch opens the pool and runs migrations (if configured) during
// prepare, idles through blocking until ctx is cancelled, and closes the
// pool during cleanup.
func (s *Service) Launch(ctx context.Context, mgr *launart.Manager) error {
	driver := s.cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.ConnectContext(ctx, driver, s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	s.db = db

	if s.cfg.MigrateOnStart && s.cfg.MigrationsPath != "" {
		if err := s.runMigrations(); err != nil {
			db.Close()
			return fmt.Errorf("database: migrate: %w", err)
		}
	}

	s.Status().SetPrepare()
	s.Status().SetBlocking()

	<-ctx.Done()

	s.Status().SetCleanup()
	defer s.Status().SetFinished()
	return s.db.Close()
}

func (s *Service) runMigrations() error {
	driverInstance, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+s.cfg.MigrationsPath, "postgres", driverInstance)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Ready pings the pool, satisfying launart.Readyer.
func (s *Service) Ready(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database: not yet connected")
	}
	return s.db.PingContext(ctx)
}
