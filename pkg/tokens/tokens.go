package tokens

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Peg identifies the fiat currency a stablecoin tracks
type Peg string

const (
	PegUSD Peg = "USD"
	PegNGN Peg = "NGN"
)

// Decimals is the on-chain precision shared by every supported asset
const Decimals = 6

// Token describes an ERC-20 asset on the quoting chain
type Token struct {
	Symbol   string
	Address  string
	Decimals int32
	Peg      Peg
}

// Known stablecoins on Base. Addresses can be overridden from config.
var known = map[string]Token{
	"USDC": {Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: Decimals, Peg: PegUSD},
	"USDT": {Symbol: "USDT", Address: "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2", Decimals: Decimals, Peg: PegUSD},
	"CNGN": {Symbol: "CNGN", Address: "0x46C85152bFe9f96829aA94755D9f915F9B10EF5F", Decimals: Decimals, Peg: PegNGN},
}

// Normalize upper-cases and trims a symbol so "cNGN" and "CNGN" resolve alike
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup returns the known token for a symbol, case-insensitively
func Lookup(symbol string) (Token, bool) {
	t, ok := known[Normalize(symbol)]
	return t, ok
}

// HexAddress returns the contract address as an EVM address
func (t Token) HexAddress() common.Address {
	return common.HexToAddress(t.Address)
}

// WithAddress returns a copy of t pointing at a different contract
func (t Token) WithAddress(address string) Token {
	t.Address = address
	return t
}

// All returns every known token sorted by symbol
func All() []Token {
	out := make([]Token, 0, len(known))
	for _, t := range known {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Pair is the two assets a reconciler converts between. Base is the USD-pegged
// side, Target the NGN-pegged side.
type Pair struct {
	Base        Token
	Target      Token
	TickSpacing int64
}

// NewPair resolves a pair from symbols
func NewPair(baseSymbol, targetSymbol string, tickSpacing int64) (Pair, error) {
	base, ok := Lookup(baseSymbol)
	if !ok {
		return Pair{}, fmt.Errorf("unknown base token: %s", baseSymbol)
	}
	target, ok := Lookup(targetSymbol)
	if !ok {
		return Pair{}, fmt.Errorf("unknown target token: %s", targetSymbol)
	}
	if base.Symbol == target.Symbol {
		return Pair{}, fmt.Errorf("pair tokens must differ: %s", base.Symbol)
	}
	if base.Peg != PegUSD {
		return Pair{}, fmt.Errorf("base token %s is not USD-pegged", base.Symbol)
	}
	if target.Peg != PegNGN {
		return Pair{}, fmt.Errorf("target token %s is not NGN-pegged", target.Symbol)
	}
	return Pair{Base: base, Target: target, TickSpacing: tickSpacing}, nil
}

// Has reports whether symbol is one of the pair members
func (p Pair) Has(symbol string) bool {
	s := Normalize(symbol)
	return s == p.Base.Symbol || s == p.Target.Symbol
}

// Resolve returns the pair member named by symbol
func (p Pair) Resolve(symbol string) (Token, bool) {
	switch Normalize(symbol) {
	case p.Base.Symbol:
		return p.Base, true
	case p.Target.Symbol:
		return p.Target, true
	}
	return Token{}, false
}

// String renders the pair as "USDC/CNGN"
func (p Pair) String() string {
	return p.Base.Symbol + "/" + p.Target.Symbol
}
