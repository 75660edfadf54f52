package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"oneramp-rates/pkg/types"
)

// RedisStore keeps snapshots in Redis so several processes share one rate
type RedisStore struct {
	client       *redis.Client
	prefix       string
	ttl          time.Duration
	historyLimit int
	logger       *zap.Logger
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, historyLimit int, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:       client,
		prefix:       prefix,
		ttl:          ttl,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

func (r *RedisStore) latestKey(pair string) string {
	return r.prefix + "latest:" + pair
}

func (r *RedisStore) historyKey(pair string) string {
	return r.prefix + "history:" + pair
}

// Get returns the latest snapshot; Redis expiry enforces the TTL
func (r *RedisStore) Get(ctx context.Context, pair string) (*types.ExchangeRateSnapshot, error) {
	val, err := r.client.Get(ctx, r.latestKey(pair)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("snapshot cache miss", zap.String("pair", pair))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap types.ExchangeRateSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Put stores the latest snapshot with TTL and pushes a history record
func (r *RedisStore) Put(ctx context.Context, pair string, snap types.ExchangeRateSnapshot) error {
	latest, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	record, err := json.Marshal(newRecord(pair, snap))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.latestKey(pair), latest, r.ttl)
	pipe.LPush(ctx, r.historyKey(pair), record)
	pipe.LTrim(ctx, r.historyKey(pair), 0, int64(r.historyLimit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.logger.Debug("snapshot stored", zap.String("pair", pair), zap.Duration("ttl", r.ttl))
	return nil
}

// History returns up to limit records, newest first
func (r *RedisStore) History(ctx context.Context, pair string, limit int) ([]types.SnapshotRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	vals, err := r.client.LRange(ctx, r.historyKey(pair), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot history: %w", err)
	}

	out := make([]types.SnapshotRecord, 0, len(vals))
	for _, v := range vals {
		var rec types.SnapshotRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			r.logger.Warn("skipping corrupt snapshot record", zap.String("pair", pair), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the Redis client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
