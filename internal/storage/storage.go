// Package storage выбирает реализацию репозиториев по конфигу.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/trome-service/config"
	"github.com/cwrk-planet/trome-service/internal/repository"
	"github.com/cwrk-planet/trome-service/internal/repository/postgres"
	"github.com/cwrk-planet/trome-service/internal/repository/sqlite"
)

type Repos struct {
	Driver   string
	Rooms    repository.RoomRepository
	Users    repository.UserDirectory
	Profiles repository.ProfileStore

	migrate func(ctx context.Context) error
	close   func()
}

func (r *Repos) Migrate(ctx context.Context) error { return r.migrate(ctx) }

func (r *Repos) Close() {
	if r.close != nil {
		r.close()
	}
}

func Open(ctx context.Context, cfg config.Storage, appName string) (*Repos, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &Repos{
			Driver:   cfg.Driver,
			Rooms:    sqlite.NewRoomRepo(db),
			Users:    sqlite.NewUserRepo(db),
			Profiles: sqlite.NewProfileRepo(db),
			migrate:  func(ctx context.Context) error { return sqlite.Migrate(ctx, db) },
			close:    func() { _ = db.Close() },
		}, nil

	case config.DriverPostgres, "":
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetimeOr(time.Hour),
			MaxConnIdleTime: cfg.MaxConnIdleTimeOr(30 * time.Minute),
			ApplicationName: appName,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Repos{
			Driver:   config.DriverPostgres,
			Rooms:    postgres.NewRoomRepo(pool),
			Users:    postgres.NewUserRepo(pool),
			Profiles: postgres.NewProfileRepo(pool),
			migrate:  func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:    pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
