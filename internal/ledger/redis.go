package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stjoseph/assessment-gateway/internal/config"
)

// RedisLedger stores completion records as a per-student Redis set, so the
// record survives gateway restarts. Append-only; entries are never removed.
type RedisLedger struct {
	rdb *redis.Client
}

// NewRedisLedger creates a new RedisLedger.
func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func (l *RedisLedger) IsCompleted(ctx context.Context, userID int, assessmentID string) (bool, error) {
	ok, err := l.rdb.SIsMember(ctx, config.CacheKey.CompletedSetKey(userID), assessmentID).Result()
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) MarkCompleted(ctx context.Context, userID int, assessmentID string) error {
	// SADD is a no-op for members already present.
	if err := l.rdb.SAdd(ctx, config.CacheKey.CompletedSetKey(userID), assessmentID).Err(); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (l *RedisLedger) CompletedIDs(ctx context.Context, userID int) ([]string, error) {
	ids, err := l.rdb.SMembers(ctx, config.CacheKey.CompletedSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	return ids, nil
}
