// Package snapshot keeps the most recent live exchange-rate snapshot per pair,
// plus a bounded history, so quotes can fall back to a recent rate when the
// chain is unreachable.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"oneramp-rates/pkg/types"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"

	DefaultTTL          = 10 * time.Minute
	DefaultHistoryLimit = 100
)

// Store persists rate snapshots. Get returns nil, nil on a miss or when the
// latest snapshot is older than the store's TTL.
type Store interface {
	Get(ctx context.Context, pair string) (*types.ExchangeRateSnapshot, error)
	Put(ctx context.Context, pair string, snap types.ExchangeRateSnapshot) error
	History(ctx context.Context, pair string, limit int) ([]types.SnapshotRecord, error)
}

// Options configures a store backend
type Options struct {
	TTL          time.Duration
	HistoryLimit int
	FilePath     string
	Redis        *redis.Options
	RedisPrefix  string
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Open creates the store for a backend name
func Open(backend string, opts Options) (Store, error) {
	opts = opts.withDefaults()

	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemoryStore(opts.TTL, opts.HistoryLimit), nil
	case BackendFile:
		return NewFileStore(opts.FilePath, opts.TTL, opts.HistoryLimit)
	case BackendRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis options are required for the redis backend")
		}
		return NewRedisStore(redis.NewClient(opts.Redis), opts.RedisPrefix, opts.TTL, opts.HistoryLimit, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", backend)
	}
}

func newRecord(pair string, snap types.ExchangeRateSnapshot) types.SnapshotRecord {
	return types.SnapshotRecord{
		ID:       uuid.New(),
		Pair:     pair,
		Snapshot: snap,
	}
}

// clampLimit bounds a history request to what is stored
func clampLimit(limit, available int) int {
	if limit <= 0 || limit > available {
		return available
	}
	return limit
}
