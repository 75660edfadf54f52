package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"oneramp-rates/pkg/tokens"
)

var filterPeg string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List all supported tokens",
	Long: `List the stablecoins the quoter can convert between, with their contract
addresses on Base after config overrides.

Examples:
  oneramp-rates list-tokens
  oneramp-rates list-tokens --peg NGN`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterPeg, "peg", "", "Filter by pegged currency (USD, NGN)")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, _ := loadConfig(cmd)
	pair, err := configuredPair(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply filters and overrides
	var filtered []tokens.Token
	for _, t := range tokens.All() {
		if filterPeg != "" && !strings.EqualFold(string(t.Peg), filterPeg) {
			continue
		}
		if addr, ok := tokenOverride(cfg, t.Symbol); ok {
			t = t.WithAddress(addr)
		}
		filtered = append(filtered, t)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered, pair)
}

func displayTokens(list []tokens.Token, pair tokens.Pair) {
	if len(list) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	for _, t := range list {
		marker := " "
		if pair.Has(t.Symbol) {
			marker = color.GreenString("*")
		}
		fmt.Printf("%s %-10s  %-4s  %2d decimals  %s\n",
			marker,
			color.YellowString(t.Symbol),
			t.Peg,
			t.Decimals,
			color.HiBlackString(t.Address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens (* = configured pair %s)\n\n", len(list), pair)
}
