package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"oneramp-rates/pkg/fees"
)

var showBreakdown bool

var feeCmd = &cobra.Command{
	Use:   "fee <amount> <country>",
	Short: "Compute the mobile-money cashout fee for an amount",
	Long: `Compute the cashout fee charged when withdrawing an amount of local
currency through mobile money.

Supported countries: ` + strings.Join(fees.SupportedCountries(), ", ") + `

A negative amount must follow "--" so it is not read as a flag.

Examples:
  oneramp-rates fee 50000 tanzania
  oneramp-rates fee 50000 uganda --breakdown
  oneramp-rates fee 2500 Uganda --json
  oneramp-rates fee -- -100 tanzania`,
	Args: cobra.ExactArgs(2),
	Run:  runFee,
}

func init() {
	rootCmd.AddCommand(feeCmd)

	feeCmd.Flags().BoolVarP(&showBreakdown, "breakdown", "b", false, "Itemize the withdraw fee and tax")
}

func runFee(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount, err := parseFeeAmount(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	country := args[1]

	fee, lookupErr := fees.LookupFee(amount, country)
	currency, _ := fees.Currency(country)

	var breakdown *fees.CashoutFeeResult
	if showBreakdown {
		res, err := fees.GetBreakdown(amount, country)
		if err == nil {
			breakdown = &res
		}
	}

	if jsonOutput {
		output := map[string]interface{}{
			"amount":   amount,
			"country":  country,
			"currency": currency,
			"fee":      fee,
			"known":    lookupErr == nil,
		}
		if breakdown != nil {
			output["breakdown"] = breakdown
		}
		jsonData, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			printError(fmt.Errorf("failed to encode fee: %w", err))
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
		return
	}

	switch {
	case errors.Is(lookupErr, fees.ErrUnsupportedCountry):
		color.Yellow("\nNo fee table for %q; the cashout fee is unknown.", country)
		fmt.Printf("Supported countries: %s\n\n", strings.Join(fees.SupportedCountries(), ", "))
		return
	case errors.Is(lookupErr, fees.ErrNoMatchingRange):
		color.Yellow("\n%s %s is outside every fee range for %s; the cashout fee is unknown.\n", formatAmount(amount), currency, country)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     CASHOUT FEE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Amount:            %s %s\n", formatAmount(amount), currency)
	if breakdown != nil {
		fmt.Printf("  Withdraw Fee:      %s %s\n", formatAmount(breakdown.WithdrawFee), currency)
		fmt.Printf("  Tax:               %s %s\n", formatAmount(breakdown.TaxAmount), currency)
	} else if showBreakdown {
		fmt.Printf("  %s\n", color.HiBlackString("(no itemized breakdown for this country)"))
	}
	fmt.Printf("  Total Fee:         %s %s\n", color.CyanString(formatAmount(fee)), currency)
	fmt.Printf("  You Receive:       %s %s\n", formatAmount(amount-fee), currency)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

// parseFeeAmount accepts finite decimal amounts only
func parseFeeAmount(s string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q: must be a finite number", s)
	}
	return amount, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
