package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is a Redis-backed ledger that makes at-least-once push delivery
// idempotent: consumers key it by broker message id and skip the effect on a
// duplicate.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire the dedup slot for handler + messageID.
// Returns true if this is the first delivery, false on a duplicate.
// When Redis is unreachable it fails open and allows processing: a rare
// duplicate effect beats dropping events whenever Redis blips.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, messageID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("handler", handler),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicate delivery",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release frees an acquired slot again. Consumers call it when the effect
// failed after acquisition: the message is answered 5xx so the broker
// redelivers, and the redelivery must not be mistaken for a duplicate.
func (d *Deduper) Release(ctx context.Context, handler, messageID string) {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)

	if err := d.rdb.Del(ctx, key).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Failed to release dedup slot",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
