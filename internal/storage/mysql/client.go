package mysql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to MySQL through gorm, retrying with exponential backoff while
// the server is unreachable, and applies the pool settings from cfg.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 newLogger(cfg.LogLevel),
	}

	var db *gorm.DB
	attempt := 0
	connect := func() error {
		attempt++
		var err error
		db, err = gorm.Open(gormmysql.Open(cfg.DSN()), gormConfig)
		if err == nil {
			var sqlDB *sql.DB
			if sqlDB, err = db.DB(); err == nil {
				err = sqlDB.PingContext(ctx)
			}
		}
		if err != nil && log != nil {
			log.Warn("mysql connect failed", "attempt", attempt, "err", err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(b, cfg.ConnectRetries), ctx)); err != nil {
		return nil, pkgerrors.Wrapf(err, "connect to mysql after %d attempts", attempt)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sql.DB")
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return newStore(db), nil
}

func newLogger(level string) logger.Interface {
	var l logger.LogLevel
	switch level {
	case "info":
		l = logger.Info
	case "warn":
		l = logger.Warn
	case "silent":
		l = logger.Silent
	default:
		l = logger.Error
	}
	return logger.Default.LogMode(l)
}
