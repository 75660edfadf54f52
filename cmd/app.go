package cmd

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oneramp-rates/config"
	"oneramp-rates/pkg/logging"
	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/rates"
	"oneramp-rates/pkg/snapshot"
	"oneramp-rates/pkg/tokens"
)

// app bundles what every rate command needs
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	reconciler *rates.Reconciler
	closers    []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// loadConfig loads configuration and builds a logger, exiting on failure
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return cfg, logger
}

// newApp wires the reconciler from configuration. A quoter that cannot be
// reached is logged and skipped; quotes then come from the lower tiers.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger := loadConfig(cmd)
	a := &app{cfg: cfg, logger: logger}

	pair, err := configuredPair(cfg)
	if err != nil {
		return nil, err
	}

	opts := []rates.Option{rates.WithLogger(logger)}

	if rate, err := decimal.NewFromString(cfg.Fallback.Rate); err == nil {
		opts = append(opts, rates.WithFallbackRate(rate))
	}

	if ref, ok := referenceTx(cfg); ok {
		opts = append(opts, rates.WithReferenceTx(ref))
	}

	variant, err := quoter.ParseVariant(cfg.Quoter.ABI)
	if err != nil {
		return nil, err
	}
	q, err := quoter.Dial(ctx, cfg.RPCURL, cfg.Quoter.Address, variant,
		quoter.WithTimeout(cfg.RPCTimeout),
		quoter.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("on-chain quoter unavailable", zap.String("rpc_url", cfg.RPCURL), zap.Error(err))
	} else {
		opts = append(opts, rates.WithQuoter(q))
		a.closers = append(a.closers, q.Close)
	}

	store, err := snapshot.Open(cfg.Cache.Backend, snapshot.Options{
		TTL:          cfg.Cache.TTL,
		HistoryLimit: cfg.Cache.HistoryLimit,
		FilePath:     cfg.Cache.File,
		Redis: &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		RedisPrefix: cfg.Redis.Prefix,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("snapshot cache unavailable", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
	} else {
		opts = append(opts, rates.WithStore(store))
		if rs, ok := store.(*snapshot.RedisStore); ok {
			a.closers = append(a.closers, func() { _ = rs.Close() })
		}
	}

	a.reconciler = rates.NewReconciler(pair, opts...)
	return a, nil
}

// configuredPair resolves the pair and applies token address overrides
func configuredPair(cfg *config.Config) (tokens.Pair, error) {
	pair, err := tokens.NewPair(cfg.Pair.Base, cfg.Pair.Target, cfg.Pair.TickSpacing)
	if err != nil {
		return tokens.Pair{}, err
	}
	if addr, ok := tokenOverride(cfg, pair.Base.Symbol); ok {
		pair.Base = pair.Base.WithAddress(addr)
	}
	if addr, ok := tokenOverride(cfg, pair.Target.Symbol); ok {
		pair.Target = pair.Target.WithAddress(addr)
	}
	return pair, nil
}

func tokenOverride(cfg *config.Config, symbol string) (string, bool) {
	for sym, addr := range cfg.Tokens {
		if tokens.Normalize(sym) == symbol && addr != "" {
			return addr, true
		}
	}
	return "", false
}

func referenceTx(cfg *config.Config) (rates.ReferenceTx, bool) {
	in, err := decimal.NewFromString(cfg.Fallback.ReferenceAmountIn)
	if err != nil {
		return rates.ReferenceTx{}, false
	}
	out, err := decimal.NewFromString(cfg.Fallback.ReferenceAmountOut)
	if err != nil {
		return rates.ReferenceTx{}, false
	}
	ref := rates.ReferenceTx{AmountIn: in, AmountOut: out}
	if _, ok := ref.Rate(); !ok {
		return rates.ReferenceTx{}, false
	}
	return ref, true
}
