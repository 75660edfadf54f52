package rates

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/types"
)

// rateStep is one source in the live-rate waterfall
type rateStep struct {
	name  string
	live  bool // live results are written to the snapshot store
	fetch func(ctx context.Context) (types.ExchangeRateSnapshot, error)
}

// GetLiveRate returns the current base<->target rate from the first source that
// answers: on-chain quoter, oracle, reference transaction. When none do it
// returns the hardcoded estimate with Success=false.
func (r *Reconciler) GetLiveRate(ctx context.Context) types.ExchangeRateSnapshot {
	snap, step, ok := r.firstRate(ctx, r.liveSteps(true))
	if !ok {
		return r.fallbackSnapshot()
	}

	if step.live && r.store != nil {
		if err := r.store.Put(ctx, r.pair.String(), snap); err != nil {
			r.logger.Warn("failed to cache live rate", zap.String("pair", r.pair.String()), zap.Error(err))
		}
	}
	return snap
}

func (r *Reconciler) liveSteps(includeChain bool) []rateStep {
	steps := make([]rateStep, 0, 3)
	if includeChain {
		steps = append(steps, rateStep{name: "on-chain", live: true, fetch: r.onChainRate})
	}
	return append(steps,
		rateStep{name: "oracle", live: true, fetch: r.oracleRate},
		rateStep{name: "reference", fetch: r.referenceRate},
	)
}

// firstRate tries steps in order and returns the first usable snapshot
func (r *Reconciler) firstRate(ctx context.Context, steps []rateStep) (types.ExchangeRateSnapshot, rateStep, bool) {
	for _, step := range steps {
		snap, err := step.fetch(ctx)
		if err != nil {
			r.logger.Debug("live rate source skipped",
				zap.String("pair", r.pair.String()),
				zap.String("source", step.name),
				zap.Error(err))
			continue
		}
		return snap, step, true
	}
	return types.ExchangeRateSnapshot{}, rateStep{}, false
}

// onChainRate quotes one whole base token and inverts it for the reverse side
func (r *Reconciler) onChainRate(ctx context.Context) (types.ExchangeRateSnapshot, error) {
	if r.quoter == nil {
		return types.ExchangeRateSnapshot{}, unavailable("no quoter configured")
	}

	res, err := r.quoter.QuoteExactInputSingle(ctx, quoter.QuoteParams{
		TokenIn:     r.pair.Base.HexAddress(),
		TokenOut:    r.pair.Target.HexAddress(),
		AmountIn:    quoter.ToBaseUnits(decimal.NewFromInt(1), r.pair.Base.Decimals),
		TickSpacing: r.pair.TickSpacing,
	})
	if err != nil {
		return types.ExchangeRateSnapshot{}, unavailable("quoter: %v", err)
	}

	rate := quoter.FromBaseUnits(res.AmountOut, r.pair.Target.Decimals).InexactFloat64()
	return r.snapshotFromRate(rate, SourceOnChain)
}

func (r *Reconciler) oracleRate(ctx context.Context) (types.ExchangeRateSnapshot, error) {
	if r.oracle == nil {
		return types.ExchangeRateSnapshot{}, unavailable("no oracle configured")
	}
	rate, err := r.oracle.LiveRate(ctx, r.pair)
	if err != nil {
		return types.ExchangeRateSnapshot{}, unavailable("oracle: %v", err)
	}
	return r.snapshotFromRate(rate, SourceOracle)
}

func (r *Reconciler) referenceRate(context.Context) (types.ExchangeRateSnapshot, error) {
	if r.reference == nil {
		return types.ExchangeRateSnapshot{}, unavailable("no reference transaction configured")
	}
	rate, ok := r.reference.Rate()
	if !ok {
		return types.ExchangeRateSnapshot{}, unavailable("reference transaction has non-positive amounts")
	}
	return r.snapshotFromRate(rate.InexactFloat64(), SourceReference)
}

func (r *Reconciler) snapshotFromRate(rate float64, source string) (types.ExchangeRateSnapshot, error) {
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return types.ExchangeRateSnapshot{}, unavailable("%s returned unusable rate %v", source, rate)
	}
	return types.ExchangeRateSnapshot{
		USDCToTarget: rate,
		TargetToUSDC: 1 / rate,
		Source:       source,
		Timestamp:    r.now().UTC(),
		Success:      true,
	}, nil
}

func (r *Reconciler) fallbackSnapshot() types.ExchangeRateSnapshot {
	rate := r.fallbackRate.InexactFloat64()
	r.logger.Warn("all live rate sources failed, using fallback estimate",
		zap.String("pair", r.pair.String()),
		zap.Float64("rate", rate))

	return types.ExchangeRateSnapshot{
		USDCToTarget: rate,
		TargetToUSDC: 1 / rate,
		Source:       SourceFallback,
		Timestamp:    r.now().UTC(),
		Success:      false,
	}
}
