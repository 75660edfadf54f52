package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/snapshot"
)

// Config holds the application configuration
type Config struct {
	RPCURL     string
	RPCTimeout time.Duration

	Quoter   QuoterConfig
	Pair     PairConfig
	Tokens   map[string]string // symbol -> address overrides
	Fallback FallbackConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Log      LogConfig
}

// QuoterConfig selects the on-chain quoter contract and its ABI
type QuoterConfig struct {
	Address string
	ABI     string
}

// PairConfig names the two assets to reconcile
type PairConfig struct {
	Base        string
	Target      string
	TickSpacing int64
}

// FallbackConfig holds the static rates used when the chain is unavailable
type FallbackConfig struct {
	Rate               string
	ReferenceAmountIn  string
	ReferenceAmountOut string
}

// CacheConfig controls where live-rate snapshots are kept
type CacheConfig struct {
	Backend      string
	TTL          time.Duration
	File         string
	HistoryLimit int
}

// RedisConfig is used by the redis cache backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string
	Format string
}

var globalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", "https://mainnet.base.org")
	v.SetDefault("rpc_timeout", 10*time.Second)
	v.SetDefault("quoter.address", "0x254cF9E1E6e233aa1AC962CB9B05b2cfeAaE15b0")
	v.SetDefault("quoter.abi", string(quoter.VariantStruct))
	v.SetDefault("pair.base", "USDC")
	v.SetDefault("pair.target", "CNGN")
	v.SetDefault("pair.tick_spacing", 100)
	v.SetDefault("fallback.rate", "1500")
	v.SetDefault("fallback.reference_amount_in", "100")
	v.SetDefault("fallback.reference_amount_out", "153250")
	v.SetDefault("cache.backend", snapshot.BackendFile)
	v.SetDefault("cache.ttl", snapshot.DefaultTTL)
	v.SetDefault("cache.file", "")
	v.SetDefault("cache.history_limit", snapshot.DefaultHistoryLimit)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "oneramp-rates:")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".oneramp-rates")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)

	// Read from environment variables, e.g. ONERAMP_RATES_QUOTER_ABI
	v.SetEnvPrefix("ONERAMP_RATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		RPCURL:     v.GetString("rpc_url"),
		RPCTimeout: v.GetDuration("rpc_timeout"),
		Quoter: QuoterConfig{
			Address: v.GetString("quoter.address"),
			ABI:     v.GetString("quoter.abi"),
		},
		Pair: PairConfig{
			Base:        v.GetString("pair.base"),
			Target:      v.GetString("pair.target"),
			TickSpacing: v.GetInt64("pair.tick_spacing"),
		},
		Tokens: v.GetStringMapString("tokens"),
		Fallback: FallbackConfig{
			Rate:               v.GetString("fallback.rate"),
			ReferenceAmountIn:  v.GetString("fallback.reference_amount_in"),
			ReferenceAmountOut: v.GetString("fallback.reference_amount_out"),
		},
		Cache: CacheConfig{
			Backend:      v.GetString("cache.backend"),
			TTL:          v.GetDuration("cache.ttl"),
			File:         v.GetString("cache.file"),
			HistoryLimit: v.GetInt("cache.history_limit"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	if _, err := quoter.ParseVariant(c.Quoter.ABI); err != nil {
		return err
	}

	switch strings.ToLower(c.Cache.Backend) {
	case snapshot.BackendMemory, snapshot.BackendFile, snapshot.BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	rate, err := decimal.NewFromString(c.Fallback.Rate)
	if err != nil || !rate.IsPositive() {
		return fmt.Errorf("fallback rate must be a positive number, got %q", c.Fallback.Rate)
	}

	for _, amount := range []string{c.Fallback.ReferenceAmountIn, c.Fallback.ReferenceAmountOut} {
		if amount == "" {
			continue
		}
		if _, err := decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("invalid reference amount %q: %w", amount, err)
		}
	}

	if c.Pair.TickSpacing <= 0 || c.Pair.TickSpacing > quoter.MaxTickSpacing {
		return fmt.Errorf("tick spacing must be between 1 and %d, got %d", quoter.MaxTickSpacing, c.Pair.TickSpacing)
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
