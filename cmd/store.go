package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tinoosan/bankledger/internal/config"
	v1 "github.com/tinoosan/bankledger/internal/httpapi/v1"
	"github.com/tinoosan/bankledger/internal/lock"
	"github.com/tinoosan/bankledger/internal/service/account"
	"github.com/tinoosan/bankledger/internal/storage/memory"
	"github.com/tinoosan/bankledger/internal/storage/mysql"
	"github.com/tinoosan/bankledger/internal/storage/postgres"
)

// backend is what every store offers the server.
type backend interface {
	account.Repo
	account.Writer
	v1.ReadyChecker
}

// migrator is implemented by the SQL stores.
type migrator interface {
	Migrate(ctx context.Context) error
}

// openStore connects the configured store. The returned func releases it.
func (a *app) openStore(ctx context.Context) (backend, func(), error) {
	switch a.cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return pg, pg.Close, nil
	case config.StoreMySQL:
		m := a.cfg.MySQL
		st, err := mysql.Open(ctx, mysql.Config{
			Host:            m.Host,
			Port:            m.Port,
			User:            m.User,
			Password:        m.Password,
			DBName:          m.DBName,
			MaxOpenConns:    m.MaxOpenConns,
			MaxIdleConns:    m.MaxIdleConns,
			ConnMaxLifetime: m.ConnMaxLifetime,
			ConnectRetries:  m.ConnectRetries,
			LogLevel:        m.LogLevel,
		}, a.log)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// openLocker returns the Redis locker when REDIS_URL is set so several server
// processes can share one store; otherwise an in-process lock table.
func (a *app) openLocker(ctx context.Context) (lock.Locker, func(), error) {
	if a.cfg.RedisURL == "" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return lock.NewRedisLocker(client, a.cfg.LockTTL, a.cfg.LockRetries), func() { _ = client.Close() }, nil
}
