package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"oneramp-rates/pkg/parser"
	"oneramp-rates/pkg/rates"
	"oneramp-rates/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Quote a conversion between the pair tokens",
	Long: `Quote how much of one pair token an amount of the other converts to.

The quote comes from the on-chain quoter when it is reachable. Otherwise a
recently cached rate is used, and as a last resort a fallback estimate. Quotes
not backed by a live source are flagged as estimates.

Examples:
  oneramp-rates quote 100 USDC to cNGN
  oneramp-rates quote 150000 CNGN to USDC
  oneramp-rates quote 25.5 usdc to cngn --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	// Parse the command
	commandStr := strings.Join(args, " ")
	req, err := parser.ParseQuoteCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	// Get quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := a.reconciler.GetQuote(ctx, req.Amount, req.FromSymbol, req.ToSymbol)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		var verr *rates.ValidationError
		if verbose && errors.As(err, &verr) {
			fmt.Printf("\nDebug: rejected %s %q (pair is %s)\n", verr.Field, verr.Value, a.reconciler.Pair())
		}
		printError(err)
		a.Close()
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"amountIn":  req.Amount,
			"from":      req.FromSymbol,
			"to":        req.ToSymbol,
			"amountOut": quote.AmountOut,
			"rate":      quote.Rate,
			"source":    quote.Source,
			"timestamp": quote.Timestamp,
			"success":   quote.Success,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(quote, req)
}

func displayQuote(quote types.Quote, req *types.QuoteRequest) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                        QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", req.Amount, color.YellowString(req.FromSymbol))
	fmt.Printf("  To:                ~%s %s\n", quote.AmountOut, color.YellowString(req.ToSymbol))
	fmt.Printf("  Rate:              1 %s = %s %s\n", req.FromSymbol, quote.Rate, req.ToSymbol)
	fmt.Printf("  Source:            %s\n", color.CyanString(quote.Source))
	fmt.Printf("  Quoted At:         %s\n", quote.Timestamp.Format("2006-01-02 15:04:05"))

	if !quote.Success {
		color.Yellow("\n  Live rates are unavailable; this is an estimate and may be stale.")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
