package lock

import (
	"context"
	"time"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "brewcycle:lock:"

// deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// moves the expiry only while the key still holds our token
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// NewRedisClient connects to url and checks the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid redis url").
			Mark(ierr.ErrValidation)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to redis").
			Mark(ierr.ErrSystem)
	}
	return client, nil
}

// RedisLocker is a Locker shared by every process using the same redis
type RedisLocker struct {
	client redis.Cmdable
}

func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	token := types.GenerateUUID()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, ierr.WithError(err).
			WithHint("Failed to take lock").
			WithReportableDetails(map[string]any{"key": key}).
			Mark(ierr.ErrSystem)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: l.client, key: keyPrefix + key, token: token}, true, nil
}

type redisLease struct {
	client redis.Cmdable
	key    string
	token  string
}

func (r *redisLease) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, r.client, []string{r.key}, r.token, ttl.Milliseconds()).Int()
	if err != nil && err != redis.Nil {
		return false, ierr.WithError(err).
			WithHint("Failed to extend lock").
			Mark(ierr.ErrSystem)
	}
	return n == 1, nil
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil && err != redis.Nil {
		return ierr.WithError(err).
			WithHint("Failed to release lock").
			Mark(ierr.ErrSystem)
	}
	return nil
}
