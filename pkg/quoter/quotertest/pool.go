// Package quotertest provides an in-memory constant-product pool that answers
// quoter calls, for tests that need realistic price impact without an RPC node.
package quotertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"oneramp-rates/pkg/quoter"
)

// ErrReverted mimics an execution revert from the node
var ErrReverted = errors.New("execution reverted")

type params struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	TickSpacing       *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Pool is a two-token x*y=k pool behind a quoter ABI
type Pool struct {
	mu       sync.Mutex
	variant  quoter.Variant
	abi      abi.ABI
	reserves map[common.Address]*big.Int
	feeBps   int64

	// Err, when set, is returned from every call
	Err error
	// Zero makes the pool quote an amountOut of 0
	Zero bool

	calls    int
	lastTick int64
}

// NewPool creates a pool holding reserveA of tokenA and reserveB of tokenB,
// both in base units
func NewPool(variant quoter.Variant, tokenA common.Address, reserveA *big.Int, tokenB common.Address, reserveB *big.Int, feeBps int64) *Pool {
	parsed, err := quoter.ABI(variant)
	if err != nil {
		panic(err)
	}
	return &Pool{
		variant: variant,
		abi:     parsed,
		reserves: map[common.Address]*big.Int{
			tokenA: new(big.Int).Set(reserveA),
			tokenB: new(big.Int).Set(reserveB),
		},
		feeBps: feeBps,
	}
}

// Calls returns how many quote calls the pool has served
func (p *Pool) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastTickSpacing returns the tick spacing of the most recent call
func (p *Pool) LastTickSpacing() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTick
}

// CallContract implements ethereum.ContractCaller
func (p *Pool) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}

	method, ok := p.abi.Methods["quoteExactInputSingle"]
	if !ok || len(msg.Data) < 4 {
		return nil, ErrReverted
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode calldata: %w", err)
	}

	var in params
	switch p.variant {
	case quoter.VariantStruct:
		in = *abi.ConvertType(args[0], new(params)).(*params)
	default:
		in = params{
			TokenIn:           args[0].(common.Address),
			TokenOut:          args[1].(common.Address),
			TickSpacing:       args[2].(*big.Int),
			AmountIn:          args[3].(*big.Int),
			SqrtPriceLimitX96: args[4].(*big.Int),
		}
	}
	p.lastTick = in.TickSpacing.Int64()

	amountOut, err := p.amountOut(in.TokenIn, in.TokenOut, in.AmountIn)
	if err != nil {
		return nil, err
	}

	if p.variant == quoter.VariantStruct {
		sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)
		return method.Outputs.Pack(amountOut, sqrtPrice, uint32(1), big.NewInt(85000))
	}
	return method.Outputs.Pack(amountOut)
}

func (p *Pool) amountOut(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if p.Zero {
		return new(big.Int), nil
	}
	rIn, ok := p.reserves[tokenIn]
	if !ok {
		return nil, ErrReverted
	}
	rOut, ok := p.reserves[tokenOut]
	if !ok || tokenIn == tokenOut {
		return nil, ErrReverted
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(10000-p.feeBps))
	num := new(big.Int).Mul(rOut, inWithFee)
	den := new(big.Int).Add(new(big.Int).Mul(rIn, big.NewInt(10000)), inWithFee)
	return num.Quo(num, den), nil
}
