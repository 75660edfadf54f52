// Package rates resolves exchange rates and quotes between a USD-pegged and an
// NGN-pegged stablecoin. Each lookup walks a fixed waterfall of sources and
// stops at the first one that answers; only malformed input is an error.
package rates

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/snapshot"
	"oneramp-rates/pkg/tokens"
	"oneramp-rates/pkg/types"
)

// Provenance labels carried in Quote.Source and ExchangeRateSnapshot.Source
const (
	SourceOnChain   = "On-chain Quoter"
	SourceOracle    = "Oracle"
	SourceReference = "Reference Transaction"
	SourceFallback  = "Fallback Estimate"

	cachedSuffix = " (cached)"
)

// Output precision: NGN-side amounts are large, USD-side ones small
const (
	targetPlaces = 4
	basePlaces   = 8
)

// Amounts must fit in a float64: at most ~1.8e308 and above the subnormal floor
const (
	maxAmountMagnitude = 309
	minAmountMagnitude = -323
)

// DefaultFallbackRate is the last known good USDC->CNGN rate
var DefaultFallbackRate = decimal.NewFromInt(1500)

// QuoteSource is the on-chain quoter; *quoter.Quoter satisfies it
type QuoteSource interface {
	QuoteExactInputSingle(ctx context.Context, p quoter.QuoteParams) (*quoter.QuoteResult, error)
}

// RateOracle supplies an off-chain base->target rate
type RateOracle interface {
	LiveRate(ctx context.Context, pair tokens.Pair) (float64, error)
}

// ReferenceTx is a known settled swap used to derive a static rate
type ReferenceTx struct {
	AmountIn  decimal.Decimal // base token
	AmountOut decimal.Decimal // target token
}

// Rate returns AmountOut/AmountIn, or false when the transaction is unusable
func (r ReferenceTx) Rate() (decimal.Decimal, bool) {
	if !r.AmountIn.IsPositive() || !r.AmountOut.IsPositive() {
		return decimal.Zero, false
	}
	return r.AmountOut.Div(r.AmountIn), true
}

// Reconciler answers quote and live-rate requests for one pair. It holds no
// mutable state and is safe for concurrent use.
type Reconciler struct {
	pair         tokens.Pair
	quoter       QuoteSource
	store        snapshot.Store
	oracle       RateOracle
	reference    *ReferenceTx
	fallbackRate decimal.Decimal
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithQuoter enables the on-chain tier
func WithQuoter(q QuoteSource) Option {
	return func(r *Reconciler) { r.quoter = q }
}

// WithStore enables the cached-snapshot tier
func WithStore(s snapshot.Store) Option {
	return func(r *Reconciler) { r.store = s }
}

// WithOracle enables the oracle step of the live-rate waterfall
func WithOracle(o RateOracle) Option {
	return func(r *Reconciler) { r.oracle = o }
}

// WithReferenceTx enables the reference-transaction step
func WithReferenceTx(ref ReferenceTx) Option {
	return func(r *Reconciler) { r.reference = &ref }
}

// WithFallbackRate overrides the hardcoded last-resort rate
func WithFallbackRate(rate decimal.Decimal) Option {
	return func(r *Reconciler) {
		if rate.IsPositive() {
			r.fallbackRate = rate
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler creates a reconciler for pair
func NewReconciler(pair tokens.Pair, opts ...Option) *Reconciler {
	r := &Reconciler{
		pair:         pair,
		fallbackRate: DefaultFallbackRate,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pair returns the pair the reconciler converts between
func (r *Reconciler) Pair() tokens.Pair {
	return r.pair
}

// History returns stored live-rate snapshots, newest first
func (r *Reconciler) History(ctx context.Context, limit int) ([]types.SnapshotRecord, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.History(ctx, r.pair.String(), limit)
}

// validate parses a quote request or returns a *ValidationError
func (r *Reconciler) validate(amountIn, fromSymbol, toSymbol string) (decimal.Decimal, tokens.Token, tokens.Token, error) {
	raw := strings.TrimSpace(amountIn)
	if raw == "" {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "not a decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "must be greater than 0")
	}
	// Order of magnitude is bounded before any float conversion or scaling
	switch mag := int64(amount.NumDigits()) + int64(amount.Exponent()); {
	case mag > maxAmountMagnitude:
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "must be a finite number")
	case mag < minAmountMagnitude:
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "must be greater than 0")
	}
	if math.IsInf(amount.InexactFloat64(), 0) {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("amount", amountIn, "must be a finite number")
	}

	from, ok := r.pair.Resolve(fromSymbol)
	if !ok {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("from symbol", fromSymbol, "must be "+r.pair.Base.Symbol+" or "+r.pair.Target.Symbol)
	}
	to, ok := r.pair.Resolve(toSymbol)
	if !ok {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("to symbol", toSymbol, "must be "+r.pair.Base.Symbol+" or "+r.pair.Target.Symbol)
	}
	if from.Symbol == to.Symbol {
		return decimal.Zero, tokens.Token{}, tokens.Token{}, invalid("to symbol", toSymbol, "must differ from the from symbol")
	}

	return amount, from, to, nil
}

// format renders a value with the precision of the output token
func format(d decimal.Decimal, out tokens.Token) string {
	if out.Peg == tokens.PegNGN {
		return d.StringFixed(targetPlaces)
	}
	return d.StringFixed(basePlaces)
}
