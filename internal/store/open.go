// Package store holds the room persistence backends. All of them satisfy
// core.RoomStore and keep the room config bytes exactly as given.
package store

import (
	"context"
	"fmt"

	"github.com/dkeye/Poker/internal/config"
	"github.com/dkeye/Poker/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open builds the backend named by cfg.Driver, wrapped with metrics.
func Open(ctx context.Context, cfg config.StoreConfig) (core.RoomStore, error) {
	var (
		s   core.RoomStore
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		s = NewMemory()
	case config.DriverRedis:
		s, err = DialRedis(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	case config.DriverPostgres:
		s, err = openGorm(postgres.Open(cfg.SQL.DSN), 0)
	case config.DriverSQLite:
		s, err = openGorm(sqlite.Open(cfg.SQL.DSN), 1)
	case config.DriverMongo:
		s, err = DialMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	log.Info().Str("module", "store").Str("driver", cfg.Driver).Msg("room store ready")
	return Instrument(s, cfg.Driver), nil
}

// maxConns of zero leaves the pool unbounded. sqlite wants a single writer.
func openGorm(dialector gorm.Dialector, maxConns int) (*SQL, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(maxConns)
	}
	return NewSQL(db)
}
