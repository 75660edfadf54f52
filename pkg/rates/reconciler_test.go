package rates

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oneramp-rates/pkg/quoter"
	"oneramp-rates/pkg/quoter/quotertest"
	"oneramp-rates/pkg/snapshot"
	"oneramp-rates/pkg/tokens"
)

const quoterAddr = "0x254cF9E1E6e233aa1AC962CB9B05b2cfeAaE15b0"

// Round trips and rate inversions lose the pool fee plus price impact
const tolerance = 0.05

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func testPair(t *testing.T) tokens.Pair {
	t.Helper()
	p, err := tokens.NewPair("USDC", "CNGN", 100)
	require.NoError(t, err)
	return p
}

func units(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newPool(t *testing.T, pair tokens.Pair, v quoter.Variant) *quotertest.Pool {
	t.Helper()
	return quotertest.NewPool(v,
		pair.Base.HexAddress(), quoter.ToBaseUnits(units("1000000"), 6),
		pair.Target.HexAddress(), quoter.ToBaseUnits(units("1530000000"), 6),
		5)
}

func newReconciler(t *testing.T, pool *quotertest.Pool, opts ...Option) *Reconciler {
	t.Helper()
	pair := testPair(t)
	base := []Option{WithClock(func() time.Time { return fixedNow })}
	if pool != nil {
		q, err := quoter.New(pool, quoterAddr, quoter.VariantStruct)
		require.NoError(t, err)
		base = append(base, WithQuoter(q))
	}
	return NewReconciler(pair, append(base, opts...)...)
}

func f(t *testing.T, s string) float64 {
	t.Helper()
	return decimal.RequireFromString(s).InexactFloat64()
}

func withinTolerance(t *testing.T, want, got float64) {
	t.Helper()
	assert.InEpsilon(t, want, got, tolerance, "want %v got %v", want, got)
}

func TestGetQuoteOnChain(t *testing.T) {
	pair := testPair(t)
	pool := newPool(t, pair, quoter.VariantStruct)
	r := newReconciler(t, pool)

	q, err := r.GetQuote(context.Background(), "100", "USDC", "cNGN")
	require.NoError(t, err)

	assert.Equal(t, SourceOnChain, q.Source)
	assert.True(t, q.Success)
	assert.Equal(t, fixedNow, q.Timestamp)
	assert.EqualValues(t, 100, pool.LastTickSpacing())
	withinTolerance(t, 153000, f(t, q.AmountOut))
	withinTolerance(t, 1530, f(t, q.Rate))

	amountOut := decimal.RequireFromString(q.AmountOut)
	rate := decimal.RequireFromString(q.Rate)
	assert.True(t, amountOut.Sub(rate.Mul(decimal.NewFromInt(100))).Abs().LessThan(units("0.01")))
}

func TestGetQuoteFormatting(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantFlat)
	r := newReconciler(t, pool)

	toTarget, err := r.GetQuote(context.Background(), "10", "USDC", "CNGN")
	require.NoError(t, err)
	assert.Len(t, strings.Split(toTarget.AmountOut, ".")[1], 4)
	assert.Len(t, strings.Split(toTarget.Rate, ".")[1], 4)

	toBase, err := r.GetQuote(context.Background(), "15300", "CNGN", "USDC")
	require.NoError(t, err)
	assert.Len(t, strings.Split(toBase.AmountOut, ".")[1], 8)
	assert.Len(t, strings.Split(toBase.Rate, ".")[1], 8)
}

func TestGetQuoteRoundTrip(t *testing.T) {
	for _, v := range []quoter.Variant{quoter.VariantStruct, quoter.VariantFlat} {
		t.Run(string(v), func(t *testing.T) {
			r := newReconciler(t, newPool(t, testPair(t), v))
			ctx := context.Background()

			there, err := r.GetQuote(ctx, "250", "USDC", "CNGN")
			require.NoError(t, err)
			back, err := r.GetQuote(ctx, there.AmountOut, "CNGN", "USDC")
			require.NoError(t, err)

			withinTolerance(t, 250, f(t, back.AmountOut))
			assert.Less(t, f(t, back.AmountOut), 250.0, "round trip should never gain value")
		})
	}
}

func TestGetQuoteRateInversion(t *testing.T) {
	r := newReconciler(t, newPool(t, testPair(t), quoter.VariantStruct))
	ctx := context.Background()

	forward, err := r.GetQuote(ctx, "100", "USDC", "CNGN")
	require.NoError(t, err)
	reverse, err := r.GetQuote(ctx, "153000", "CNGN", "USDC")
	require.NoError(t, err)

	withinTolerance(t, 1, f(t, forward.Rate)*f(t, reverse.Rate))
}

func TestGetQuoteValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		field  string
	}{
		{name: "zero amount", amount: "0", from: "USDC", to: "CNGN", field: "amount"},
		{name: "empty amount", amount: "", from: "USDC", to: "CNGN", field: "amount"},
		{name: "blank amount", amount: "   ", from: "USDC", to: "CNGN", field: "amount"},
		{name: "non-numeric amount", amount: "abc", from: "USDC", to: "CNGN", field: "amount"},
		{name: "negative amount", amount: "-5", from: "USDC", to: "CNGN", field: "amount"},
		{name: "nan amount", amount: "NaN", from: "USDC", to: "CNGN", field: "amount"},
		{name: "infinite amount", amount: "Inf", from: "USDC", to: "CNGN", field: "amount"},
		{name: "amount above float range", amount: "1e400", from: "USDC", to: "CNGN", field: "amount"},
		{name: "amount just above float max", amount: "2e308", from: "USDC", to: "CNGN", field: "amount"},
		{name: "huge exponent", amount: "1e50000000", from: "USDC", to: "CNGN", field: "amount"},
		{name: "underflowing amount", amount: "1e-50000000", from: "USDC", to: "CNGN", field: "amount"},
		{name: "unknown from", amount: "1", from: "DAI", to: "CNGN", field: "from symbol"},
		{name: "unknown to", amount: "1", from: "USDC", to: "EURC", field: "to symbol"},
		{name: "known token outside pair", amount: "1", from: "USDT", to: "CNGN", field: "from symbol"},
		{name: "empty symbol", amount: "1", from: "", to: "CNGN", field: "from symbol"},
		{name: "identical symbols", amount: "1", from: "CNGN", to: "cngn", field: "to symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newPool(t, testPair(t), quoter.VariantStruct)
			r := newReconciler(t, pool, WithReferenceTx(ReferenceTx{AmountIn: units("1"), AmountOut: units("1500")}))

			_, err := r.GetQuote(context.Background(), tt.amount, tt.from, tt.to)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, pool.Calls(), "validation failures must not reach any source")
		})
	}
}

func TestGetQuoteFallsBackToCachedSnapshot(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantStruct)
	store := snapshot.NewMemoryStore(time.Hour, 10)
	r := newReconciler(t, pool, WithStore(store))
	ctx := context.Background()

	live := r.GetLiveRate(ctx)
	require.True(t, live.Success)

	pool.Err = quotertest.ErrReverted

	q, err := r.GetQuote(ctx, "2", "USDC", "CNGN")
	require.NoError(t, err)
	assert.Equal(t, SourceOnChain+" (cached)", q.Source)
	assert.True(t, q.Success)
	assert.Equal(t, decimal.NewFromFloat(live.USDCToTarget).Mul(decimal.NewFromInt(2)).StringFixed(4), q.AmountOut)

	back, err := r.GetQuote(ctx, "3060", "CNGN", "USDC")
	require.NoError(t, err)
	assert.Equal(t, decimal.NewFromFloat(live.TargetToUSDC).StringFixed(8), back.Rate)
}

func TestGetQuoteFallsBackToReferenceTransaction(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantStruct)
	pool.Zero = true
	r := newReconciler(t, pool,
		WithStore(snapshot.NewMemoryStore(time.Hour, 10)),
		WithReferenceTx(ReferenceTx{AmountIn: units("100"), AmountOut: units("153250")}))

	q, err := r.GetQuote(context.Background(), "10", "USDC", "CNGN")
	require.NoError(t, err)
	assert.Equal(t, SourceReference, q.Source)
	assert.True(t, q.Success)
	assert.Equal(t, "15325.0000", q.AmountOut)
	assert.Equal(t, "1532.5000", q.Rate)
}

func TestGetQuoteFallbackEstimate(t *testing.T) {
	r := newReconciler(t, nil, WithFallbackRate(units("1600")))

	q, err := r.GetQuote(context.Background(), "5", "usdc", "CNGN")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, q.Source)
	assert.False(t, q.Success)
	assert.Equal(t, "8000.0000", q.AmountOut)
	assert.Equal(t, "1600.0000", q.Rate)

	q, err = r.GetQuote(context.Background(), "1600", "CNGN", "USDC")
	require.NoError(t, err)
	assert.False(t, q.Success)
	assert.Equal(t, "1.00000000", q.AmountOut)
	assert.Equal(t, "0.00062500", q.Rate)
}

func TestGetQuoteTinyAmountSkipsChain(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantStruct)
	r := newReconciler(t, pool)

	q, err := r.GetQuote(context.Background(), "0.0000001", "USDC", "CNGN")
	require.NoError(t, err)
	assert.Zero(t, pool.Calls())
	assert.Equal(t, SourceFallback, q.Source)
}

type stubOracle struct {
	rate float64
	err  error
}

func (s stubOracle) LiveRate(context.Context, tokens.Pair) (float64, error) {
	return s.rate, s.err
}

func TestGetLiveRateWaterfall(t *testing.T) {
	ref := WithReferenceTx(ReferenceTx{AmountIn: units("100"), AmountOut: units("153250")})

	t.Run("on-chain first", func(t *testing.T) {
		r := newReconciler(t, newPool(t, testPair(t), quoter.VariantStruct), ref, WithOracle(stubOracle{rate: 1}))
		snap := r.GetLiveRate(context.Background())
		assert.Equal(t, SourceOnChain, snap.Source)
		assert.True(t, snap.Success)
		withinTolerance(t, 1530, snap.USDCToTarget)
		assert.InDelta(t, 1/snap.USDCToTarget, snap.TargetToUSDC, 1e-12)
		assert.Equal(t, fixedNow, snap.Timestamp)
	})

	t.Run("oracle after chain failure", func(t *testing.T) {
		pool := newPool(t, testPair(t), quoter.VariantStruct)
		pool.Err = quotertest.ErrReverted
		r := newReconciler(t, pool, ref, WithOracle(stubOracle{rate: 1545}))
		snap := r.GetLiveRate(context.Background())
		assert.Equal(t, SourceOracle, snap.Source)
		assert.Equal(t, 1545.0, snap.USDCToTarget)
		assert.Equal(t, 1, pool.Calls())
	})

	t.Run("reference when oracle fails", func(t *testing.T) {
		r := newReconciler(t, nil, ref, WithOracle(stubOracle{err: errors.New("timeout")}))
		snap := r.GetLiveRate(context.Background())
		assert.Equal(t, SourceReference, snap.Source)
		assert.Equal(t, 1532.5, snap.USDCToTarget)
		assert.True(t, snap.Success)
	})

	t.Run("oracle zero rate is skipped", func(t *testing.T) {
		r := newReconciler(t, nil, ref, WithOracle(stubOracle{rate: 0}))
		snap := r.GetLiveRate(context.Background())
		assert.Equal(t, SourceReference, snap.Source)
	})

	t.Run("hardcoded last", func(t *testing.T) {
		r := newReconciler(t, nil, WithReferenceTx(ReferenceTx{}))
		snap := r.GetLiveRate(context.Background())
		assert.Equal(t, SourceFallback, snap.Source)
		assert.False(t, snap.Success)
		assert.Equal(t, DefaultFallbackRate.InexactFloat64(), snap.USDCToTarget)
	})
}

func TestGetLiveRateCachesOnlyLiveSources(t *testing.T) {
	store := snapshot.NewMemoryStore(time.Hour, 10)
	ctx := context.Background()

	r := newReconciler(t, nil, WithStore(store), WithReferenceTx(ReferenceTx{AmountIn: units("1"), AmountOut: units("1500")}))
	r.GetLiveRate(ctx)
	hist, err := r.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, hist)

	r = newReconciler(t, newPool(t, testPair(t), quoter.VariantStruct), WithStore(store))
	r.GetLiveRate(ctx)
	hist, err = r.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "USDC/CNGN", hist[0].Pair)
	assert.Equal(t, SourceOnChain, hist[0].Snapshot.Source)
}

func TestHistoryWithoutStore(t *testing.T) {
	r := newReconciler(t, nil)
	hist, err := r.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, hist)
}

func TestReconcilerConcurrentUse(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantStruct)
	r := newReconciler(t, pool, WithStore(snapshot.NewMemoryStore(time.Hour, 10)))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				q, err := r.GetQuote(context.Background(), "10", "USDC", "CNGN")
				assert.NoError(t, err)
				assert.True(t, q.Success)
				return
			}
			assert.True(t, r.GetLiveRate(context.Background()).Success)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, pool.Calls())
}

func TestGetQuoteHonoursCancelledContext(t *testing.T) {
	pool := newPool(t, testPair(t), quoter.VariantStruct)
	r := newReconciler(t, pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, err := r.GetQuote(ctx, "1", "USDC", "CNGN")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, q.Source)
}

func TestReferenceTxRate(t *testing.T) {
	rate, ok := ReferenceTx{AmountIn: units("200"), AmountOut: units("306000")}.Rate()
	require.True(t, ok)
	assert.Equal(t, "1530", rate.String())

	_, ok = ReferenceTx{AmountIn: units("0"), AmountOut: units("1")}.Rate()
	assert.False(t, ok)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "amount", Value: "x", Reason: "not a decimal number"}
	assert.Equal(t, `invalid amount "x": not a decimal number`, err.Error())
}

func TestGetQuoteAcceptsLargeFiniteAmount(t *testing.T) {
	r := newReconciler(t, nil, WithFallbackRate(units("1500")))

	q, err := r.GetQuote(context.Background(), "1e300", "CNGN", "USDC")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, q.Source)
}
