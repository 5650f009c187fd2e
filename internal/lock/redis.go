package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "bankledger:lock:"
	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
)

var errHeld = errors.New("lock held")

var (
	_ Locker = (*RedisLocker)(nil)
	_ Leased = (*RedisLocker)(nil)
)

// RedisLocker is a single-instance Redis lock: SET NX PX with a random token and a
// compare-and-delete release, so only the holder can unlock. It lets several
// server processes share one lock table.
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	retries uint64
	backoff func() backoff.BackOff
	token   func() string
}

// RedisOption customises a RedisLocker.
type RedisOption func(*RedisLocker)

// WithBackOff overrides the wait between acquisition attempts.
func WithBackOff(f func() backoff.BackOff) RedisOption {
	return func(l *RedisLocker) { l.backoff = f }
}

// WithTokenFunc overrides lock token generation.
func WithTokenFunc(f func() string) RedisOption {
	return func(l *RedisLocker) { l.token = f }
}

// NewRedisLocker returns a locker whose keys expire after ttl. Acquire makes at
// most retries+1 attempts.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, retries uint64, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:  client,
		ttl:     ttl,
		retries: retries,
		backoff: defaultBackOff,
		token:   uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0
	return b
}

// TTL is how long a lock stays valid after Acquire returns.
func (l *RedisLocker) TTL() time.Duration { return l.ttl }

// Acquire tries to take key, backing off between attempts.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	rkey := keyPrefix + key
	token := l.token()
	b := backoff.WithContext(backoff.WithMaxRetries(l.backoff(), l.retries), ctx)
	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return errHeld
		}
		return nil
	}, b)
	if err != nil {
		if errors.Is(err, errHeld) {
			return nil, fmt.Errorf("%w: key %s after %d attempts", ErrNotAcquired, key, l.retries+1)
		}
		return nil, errors.Wrapf(err, "acquire lock %s", key)
	}
	return func(ctx context.Context) error { return l.release(ctx, rkey, token) }, nil
}

func (l *RedisLocker) release(ctx context.Context, rkey, token string) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{rkey}, token).Result()
	if err != nil {
		return errors.Wrapf(err, "release lock %s", rkey)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return fmt.Errorf("release lock %s: expired or held by another owner", rkey)
	}
	return nil
}
