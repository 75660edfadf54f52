package types

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRequest represents a user's quote command
type QuoteRequest struct {
	Amount     string
	FromSymbol string
	ToSymbol   string
}

// Quote is the result of a one-shot conversion between the two pair assets.
// Success is false when a fallback source produced the numbers; callers should
// show a stale-rate hint rather than block.
type Quote struct {
	AmountOut string    `json:"amountOut"`
	Rate      string    `json:"rate"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// ExchangeRateSnapshot holds the rate in both directions at a point in time.
// TargetToUSDC is only approximately 1/USDCToTarget.
type ExchangeRateSnapshot struct {
	USDCToTarget float64   `json:"usdcToTarget"`
	TargetToUSDC float64   `json:"targetToUsdc"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
}

// SnapshotRecord is a stored snapshot history entry
type SnapshotRecord struct {
	ID       uuid.UUID            `json:"id"`
	Pair     string               `json:"pair"`
	Snapshot ExchangeRateSnapshot `json:"snapshot"`
}
