// Package lock provides a Redis advisory lock keyed by application id.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("LOCK_NOT_ACQUIRED")

// releaseScript deletes the key only while it still carries our token, so an
// expired lease never removes a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes SET NX PX leases.
type RedisLocker struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	newToken func() string
}

func NewRedisLocker(client redis.Cmdable, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		newToken: func() string { return ksuid.New().String() },
	}
}

// Lease is a held lock.
type Lease struct {
	locker *RedisLocker
	Key    string
	Token  string
}

// Acquire takes the lock for id or returns ErrNotAcquired.
func (l *RedisLocker) Acquire(ctx context.Context, id string) (*Lease, error) {
	key := l.prefix + id
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lease{locker: l, Key: key, Token: token}, nil
}

// Release drops the lease if it is still ours.
func (ls *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, ls.locker.client, []string{ls.Key}, ls.Token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", ls.Key, err)
	}
	return nil
}
