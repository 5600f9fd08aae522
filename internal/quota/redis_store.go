package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pdfpages/internal/config"
)

// consumeScript applies check-and-consume atomically on the redis side, so
// concurrent replicas cannot race past the limit. KEYS[1] is the counter key,
// ARGV[1] pages, ARGV[2] limit, ARGV[3] key TTL in seconds.
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
local pages = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if used + pages > limit then
  return {0, used}
end
used = redis.call('INCRBY', KEYS[1], pages)
redis.call('EXPIRE', KEYS[1], ARGV[3])
return {1, used}
`)

// Keys expire well past day rollover; they are only ever read within their
// own day.
const redisKeyTTL = 48 * time.Hour

// RedisStore is an atomic-increment counter store for deployments running
// more than one replica, where the file ledger's process-local mutex is not
// enough.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Consume(ctx context.Context, day, userID string, pages, limit int) (int, bool, error) {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{s.key(day, userID)},
		pages, limit, int(redisKeyTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrQuotaStore, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%w: unexpected script reply %v", ErrQuotaStore, res)
	}
	return int(res[1]), res[0] == 1, nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(day, userID string) string {
	return fmt.Sprintf("quota:%s:%s", day, userID)
}
