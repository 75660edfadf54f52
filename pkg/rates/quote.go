package rates

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/tokens"
	"oneramp-rates/pkg/types"
)

// quoteTier is one source in the GetQuote waterfall
type quoteTier struct {
	name  string
	quote func(ctx context.Context, amount decimal.Decimal, from, to tokens.Token) (types.Quote, error)
}

// GetQuote converts amountIn of fromSymbol into toSymbol. It tries a live
// on-chain quote, then a cached or derived rate snapshot, then the hardcoded
// estimate. The only error it returns is a *ValidationError.
func (r *Reconciler) GetQuote(ctx context.Context, amountIn, fromSymbol, toSymbol string) (types.Quote, error) {
	amount, from, to, err := r.validate(amountIn, fromSymbol, toSymbol)
	if err != nil {
		return types.Quote{}, err
	}

	tiers := []quoteTier{
		{name: "on-chain", quote: r.quoteOnChain},
		{name: "snapshot", quote: r.quoteFromSnapshot},
	}
	for _, tier := range tiers {
		q, err := tier.quote(ctx, amount, from, to)
		if err != nil {
			r.logger.Debug("quote source skipped",
				zap.String("source", tier.name),
				zap.String("from", from.Symbol),
				zap.String("to", to.Symbol),
				zap.Error(err))
			continue
		}
		return q, nil
	}

	return r.quoteFromFallback(amount, from, to), nil
}

func (r *Reconciler) quoteOnChain(ctx context.Context, amount decimal.Decimal, from, to tokens.Token) (types.Quote, error) {
	if r.quoter == nil {
		return types.Quote{}, unavailable("no quoter configured")
	}

	units := quoter.ToBaseUnits(amount, from.Decimals)
	if units.Sign() == 0 {
		return types.Quote{}, unavailable("amount %s is below %s precision", amount, from.Symbol)
	}

	res, err := r.quoter.QuoteExactInputSingle(ctx, quoter.QuoteParams{
		TokenIn:     from.HexAddress(),
		TokenOut:    to.HexAddress(),
		AmountIn:    units,
		TickSpacing: r.pair.TickSpacing,
	})
	if err != nil {
		return types.Quote{}, unavailable("quoter: %v", err)
	}

	out := quoter.FromBaseUnits(res.AmountOut, to.Decimals)
	return r.newQuote(out, out.Div(amount), to, SourceOnChain, true), nil
}

// quoteFromSnapshot prices the request with a stored live rate, or with the
// off-chain live-rate steps when nothing fresh is stored
func (r *Reconciler) quoteFromSnapshot(ctx context.Context, amount decimal.Decimal, from, to tokens.Token) (types.Quote, error) {
	var (
		snap   types.ExchangeRateSnapshot
		source string
	)

	cached, err := r.cachedSnapshot(ctx)
	if err != nil {
		r.logger.Debug("snapshot store read failed", zap.Error(err))
	}
	if cached != nil {
		snap = *cached
		source = snap.Source + cachedSuffix
	} else {
		derived, _, ok := r.firstRate(ctx, r.liveSteps(false))
		if !ok {
			return types.Quote{}, unavailable("no cached or derived snapshot")
		}
		snap = derived
		source = snap.Source
	}

	rate := snap.USDCToTarget
	if from.Symbol == r.pair.Target.Symbol {
		rate = snap.TargetToUSDC
	}
	if rate <= 0 {
		return types.Quote{}, unavailable("snapshot has unusable rate %v", rate)
	}

	d := decimal.NewFromFloat(rate)
	return r.newQuote(amount.Mul(d), d, to, source, snap.Success), nil
}

func (r *Reconciler) cachedSnapshot(ctx context.Context) (*types.ExchangeRateSnapshot, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.Get(ctx, r.pair.String())
}

func (r *Reconciler) quoteFromFallback(amount decimal.Decimal, from, to tokens.Token) types.Quote {
	rate := r.fallbackRate
	if from.Symbol == r.pair.Target.Symbol {
		rate = decimal.NewFromInt(1).DivRound(rate, 18)
	}

	r.logger.Warn("all quote sources failed, using fallback estimate",
		zap.String("from", from.Symbol),
		zap.String("to", to.Symbol),
		zap.String("rate", rate.String()))

	return r.newQuote(amount.Mul(rate), rate, to, SourceFallback, false)
}

func (r *Reconciler) newQuote(out, rate decimal.Decimal, to tokens.Token, source string, success bool) types.Quote {
	return types.Quote{
		AmountOut: format(out, to),
		Rate:      format(rate, to),
		Source:    source,
		Timestamp: r.now().UTC(),
		Success:   success,
	}
}
