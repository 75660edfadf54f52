package parser

import (
	"fmt"
	"regexp"
	"strings"

	"oneramp-rates/pkg/tokens"
	"oneramp-rates/pkg/types"
)

// <amount> <token> TO <token>, e.g. "100 USDC TO CNGN" or "2500.5 CNGN TO USDC"
var quotePattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// ParseQuoteCommand parses a natural language quote command
// Examples:
//   - "quote 100 USDC to cNGN"
//   - "1.5 USDC to CNGN"
//   - "150000 cngn to usdc"
func ParseQuoteCommand(command string) (*types.QuoteRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "QUOTE" if present at the beginning
	command = strings.TrimPrefix(command, "QUOTE ")
	command = strings.TrimSpace(command)

	matches := quotePattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid quote command format. Expected: '<amount> <token> to <token>' (e.g., '100 USDC to CNGN')")
	}

	return &types.QuoteRequest{
		Amount:     matches[1],
		FromSymbol: NormalizeTokenSymbol(matches[2]),
		ToSymbol:   NormalizeTokenSymbol(matches[3]),
	}, nil
}

// ValidateQuoteRequest validates that a quote request has all required fields
func ValidateQuoteRequest(req *types.QuoteRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.FromSymbol == "" {
		return fmt.Errorf("source token is required")
	}
	if req.ToSymbol == "" {
		return fmt.Errorf("destination token is required")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = tokens.Normalize(symbol)

	// Handle common aliases
	aliases := map[string]string{
		"USDBC": "USDC",
		"NGN":   "CNGN",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
