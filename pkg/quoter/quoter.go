// Package quoter reads swap quotes from an on-chain pool quoter contract.
package quoter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrZeroOutput is returned when the pool quotes nothing for a non-zero input
var ErrZeroOutput = errors.New("quoter returned zero output")

// QuoteParams is the input of a single-pool exact-input quote
type QuoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	TickSpacing       int64
	SqrtPriceLimitX96 *big.Int // nil means no price limit
}

// QuoteResult is the decoded quoter output. Only AmountOut is set by the flat variant.
type QuoteResult struct {
	AmountOut               *big.Int
	SqrtPriceX96After       *big.Int
	InitializedTicksCrossed uint32
	GasEstimate             *big.Int
}

// Quoter issues read-only quoteExactInputSingle calls
type Quoter struct {
	caller  ethereum.ContractCaller
	address common.Address
	variant Variant
	abi     abi.ABI
	timeout time.Duration
	logger  *zap.Logger
	close   func()
}

// Option configures a Quoter
type Option func(*Quoter)

// WithTimeout bounds each contract call
func WithTimeout(d time.Duration) Option {
	return func(q *Quoter) { q.timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(q *Quoter) {
		if l != nil {
			q.logger = l
		}
	}
}

// New creates a quoter on top of any contract caller
func New(caller ethereum.ContractCaller, address string, variant Variant, opts ...Option) (*Quoter, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is required")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid quoter address: %s", address)
	}

	parsed, err := ABI(variant)
	if err != nil {
		return nil, err
	}

	q := &Quoter{
		caller:  caller,
		address: common.HexToAddress(address),
		variant: variant,
		abi:     parsed,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Dial connects to an RPC endpoint and returns a quoter bound to it
func Dial(ctx context.Context, rpcURL, address string, variant Variant, opts ...Option) (*Quoter, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	q, err := New(client, address, variant, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	q.close = client.Close
	return q, nil
}

// Variant reports which ABI the quoter uses
func (q *Quoter) Variant() Variant {
	return q.variant
}

// Address returns the quoter contract address
func (q *Quoter) Address() common.Address {
	return q.address
}

// QuoteExactInputSingle asks the quoter how much TokenOut AmountIn buys
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, p QuoteParams) (*QuoteResult, error) {
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	data, err := pack(q.abi, q.variant, p)
	if err != nil {
		return nil, fmt.Errorf("failed to pack quote call: %w", err)
	}

	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	msg := ethereum.CallMsg{
		To:   &q.address,
		Data: data,
	}

	start := time.Now()
	result, err := q.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call quoter: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty result from quoter at %s", q.address.Hex())
	}

	out, err := unpack(q.abi, q.variant, result)
	if err != nil {
		return nil, err
	}
	if out.AmountOut == nil || out.AmountOut.Sign() == 0 {
		return nil, ErrZeroOutput
	}

	q.logger.Debug("quoter call succeeded",
		zap.String("token_in", p.TokenIn.Hex()),
		zap.String("token_out", p.TokenOut.Hex()),
		zap.String("amount_in", p.AmountIn.String()),
		zap.String("amount_out", out.AmountOut.String()),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

// Close releases the RPC connection when the quoter owns it
func (q *Quoter) Close() {
	if q.close != nil {
		q.close()
	}
}
