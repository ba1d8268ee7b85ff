package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/persistence"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/repository/gormrepo"
)

// Store is the relational backend selected by configuration.
type Store struct {
	Repos  repository.Set
	Driver string

	postgres *persistence.Postgres
	gorm     *persistence.Gorm
}

// OpenStore connects the configured driver. Postgres is served by pgx with
// SQL migrations; MySQL and SQLite go through GORM.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN required for postgres storage")
		}
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Store{
			Repos:    repository.NewPostgresSet(pg.PoolHandle()),
			Driver:   cfg.Storage.Driver,
			postgres: pg,
		}, nil
	default:
		g, err := persistence.NewGorm(cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Repos:  gormrepo.NewSet(g.DB),
			Driver: cfg.Storage.Driver,
			gorm:   g,
		}, nil
	}
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if s.postgres != nil {
		return persistence.RunMigrations(ctx, s.postgres.PoolHandle(), cfg.Postgres.MigrationsDir, logger)
	}
	if err := gormrepo.Migrate(s.gorm.DB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("schema migrated", zap.String("driver", s.Driver))
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.postgres != nil {
		return s.postgres.Ping(ctx)
	}
	return s.gorm.Ping(ctx)
}

func (s *Store) Close() {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.gorm != nil {
		s.gorm.Close()
	}
}
