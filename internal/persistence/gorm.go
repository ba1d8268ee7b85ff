package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spec-kit/support-portal/internal/config"
)

// Gorm wraps a GORM handle for the MySQL and SQLite backends.
type Gorm struct {
	DB *gorm.DB
}

// NewGorm opens the GORM backend selected by cfg.Storage.Driver.
func NewGorm(cfg *config.Config, log *zap.Logger) (*Gorm, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.MySQL.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("persistence: driver %q is not served by gorm", cfg.Storage.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", cfg.Storage.Driver, err)
	}
	if cfg.Storage.Driver == config.DriverSQLite {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("persistence: sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("connected to database", zap.String("driver", cfg.Storage.Driver))
	return &Gorm{DB: db}, nil
}

// Ping verifies database connectivity.
func (g *Gorm) Ping(ctx context.Context) error {
	if g == nil || g.DB == nil {
		return errors.New("gorm database not configured")
	}
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (g *Gorm) Close() {
	if g == nil || g.DB == nil {
		return
	}
	if sqlDB, err := g.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
