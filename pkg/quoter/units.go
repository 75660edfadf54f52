package quoter

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits scales a token amount to its integer on-chain representation,
// truncating anything finer than the token's precision
func ToBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

// FromBaseUnits converts an on-chain integer amount back to token units
func FromBaseUnits(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}
