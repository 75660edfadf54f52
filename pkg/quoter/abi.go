package quoter

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Variant selects which quoter ABI the configured contract speaks. Deployments
// disagree: newer quoters take a single params tuple and return price/tick/gas
// details, older ones take flat arguments and return only amountOut.
type Variant string

const (
	VariantStruct Variant = "struct"
	VariantFlat   Variant = "flat"
)

const methodQuoteExactInputSingle = "quoteExactInputSingle"

// Tick spacing is an int24 on chain
const (
	MaxTickSpacing = 1<<23 - 1
	MinTickSpacing = -1 << 23
)

// Tuple-params quoter (concentrated-liquidity QuoterV2 layout)
const structQuoterABI = `[
	{
		"inputs": [
			{
				"components": [
					{"name": "tokenIn", "type": "address"},
					{"name": "tokenOut", "type": "address"},
					{"name": "amountIn", "type": "uint256"},
					{"name": "tickSpacing", "type": "int24"},
					{"name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"name": "amountOut", "type": "uint256"},
			{"name": "sqrtPriceX96After", "type": "uint160"},
			{"name": "initializedTicksCrossed", "type": "uint32"},
			{"name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Flat-argument quoter
const flatQuoterABI = `[
	{
		"inputs": [
			{"name": "tokenIn", "type": "address"},
			{"name": "tokenOut", "type": "address"},
			{"name": "tickSpacing", "type": "int24"},
			{"name": "amountIn", "type": "uint256"},
			{"name": "sqrtPriceLimitX96", "type": "uint160"}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"name": "amountOut", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// quoteParams mirrors the struct quoter's params tuple field for field
type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	TickSpacing       *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ParseVariant validates a configured variant name
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantStruct, VariantFlat:
		return v, nil
	default:
		return "", fmt.Errorf("unknown quoter ABI variant %q (want %q or %q)", s, VariantStruct, VariantFlat)
	}
}

// ABI returns the parsed contract ABI for a variant
func ABI(v Variant) (abi.ABI, error) {
	var raw string
	switch v {
	case VariantStruct:
		raw = structQuoterABI
	case VariantFlat:
		raw = flatQuoterABI
	default:
		return abi.ABI{}, fmt.Errorf("unknown quoter ABI variant %q", v)
	}

	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}
	return parsed, nil
}

// pack encodes calldata for the variant's quoteExactInputSingle
func pack(parsed abi.ABI, v Variant, p QuoteParams) ([]byte, error) {
	if p.TickSpacing < MinTickSpacing || p.TickSpacing > MaxTickSpacing {
		return nil, fmt.Errorf("tick spacing %d does not fit in int24", p.TickSpacing)
	}
	tickSpacing := big.NewInt(p.TickSpacing)
	limit := p.SqrtPriceLimitX96
	if limit == nil {
		limit = new(big.Int)
	}

	switch v {
	case VariantStruct:
		return parsed.Pack(methodQuoteExactInputSingle, quoteParams{
			TokenIn:           p.TokenIn,
			TokenOut:          p.TokenOut,
			AmountIn:          p.AmountIn,
			TickSpacing:       tickSpacing,
			SqrtPriceLimitX96: limit,
		})
	case VariantFlat:
		return parsed.Pack(methodQuoteExactInputSingle, p.TokenIn, p.TokenOut, tickSpacing, p.AmountIn, limit)
	default:
		return nil, fmt.Errorf("unknown quoter ABI variant %q", v)
	}
}

// unpack decodes the call result; the flat variant only fills AmountOut
func unpack(parsed abi.ABI, v Variant, data []byte) (*QuoteResult, error) {
	values, err := parsed.Unpack(methodQuoteExactInputSingle, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack quote: %w", err)
	}

	switch v {
	case VariantStruct:
		if len(values) != 4 {
			return nil, fmt.Errorf("unexpected quote output length %d", len(values))
		}
		amountOut, ok1 := values[0].(*big.Int)
		sqrtPrice, ok2 := values[1].(*big.Int)
		ticks, ok3 := values[2].(uint32)
		gas, ok4 := values[3].(*big.Int)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, fmt.Errorf("unexpected quote output types")
		}
		return &QuoteResult{
			AmountOut:               amountOut,
			SqrtPriceX96After:       sqrtPrice,
			InitializedTicksCrossed: ticks,
			GasEstimate:             gas,
		}, nil
	default:
		if len(values) != 1 {
			return nil, fmt.Errorf("unexpected quote output length %d", len(values))
		}
		amountOut, ok := values[0].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected quote output type %T", values[0])
		}
		return &QuoteResult{AmountOut: amountOut}, nil
	}
}
