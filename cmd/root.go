package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oneramp-rates",
	Short: "A CLI for USDC/cNGN exchange rates and cashout fees",
	Long: `oneramp-rates quotes conversions between USD-pegged and NGN-pegged
stablecoins on Base, tracks the live exchange rate and computes mobile-money
cashout fees. Quotes come from the on-chain quoter when it is reachable and
fall back to cached or estimated rates otherwise.

Examples:
  oneramp-rates quote 100 USDC to cNGN
  oneramp-rates rate --watch --interval 30
  oneramp-rates rate history --limit 10
  oneramp-rates fee 50000 uganda --breakdown
  oneramp-rates list-tokens`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
