package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"oneramp-rates/pkg/rates"
	"oneramp-rates/pkg/types"
)

var (
	watchRate     bool
	watchInterval int
	historyLimit  int
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the live exchange rate for the configured pair",
	Long: `Show the current exchange rate in both directions for the configured pair.

Each fetch walks the on-chain quoter, an oracle if configured, the reference
transaction and finally a fallback estimate. Live results are cached so quotes
can use them when the chain is unreachable.

Examples:
  oneramp-rates rate
  oneramp-rates rate --watch
  oneramp-rates rate --watch --interval 30
  oneramp-rates rate history --limit 10`,
	Args: cobra.NoArgs,
	Run:  runRate,
}

var rateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List cached live-rate snapshots, newest first",
	Args:  cobra.NoArgs,
	Run:   runRateHistory,
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rateCmd.AddCommand(rateHistoryCmd)

	rateCmd.Flags().BoolVarP(&watchRate, "watch", "w", false, "Watch the rate continuously")
	rateCmd.Flags().IntVar(&watchInterval, "interval", 60, "Polling interval in seconds (when watching)")
	rateHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of snapshots to show")
}

func runRate(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	if watchRate {
		watchLiveRate(ctx, a.reconciler, jsonOutput)
	} else {
		checkLiveRate(ctx, a.reconciler, jsonOutput)
	}
}

func checkLiveRate(ctx context.Context, r *rates.Reconciler, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching live rate..."
		s.Start()
	}

	snap := r.GetLiveRate(ctx)
	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayRate(snap, r)
	}
}

func watchLiveRate(ctx context.Context, r *rates.Reconciler, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		return
	}
	if watchInterval <= 0 {
		printError(fmt.Errorf("interval must be positive, got %d", watchInterval))
		return
	}

	fmt.Printf("\nWatching %s rate\n", color.CyanString(r.Pair().String()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	displayRate(r.GetLiveRate(ctx), r)

	// Then check periodically
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return
		case <-ticker.C:
			displayRate(r.GetLiveRate(ctx), r)
		}
	}
}

func displayRate(snap types.ExchangeRateSnapshot, r *rates.Reconciler) {
	pair := r.Pair()

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        EXCHANGE RATE")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  1 %s = %s %s\n", pair.Base.Symbol, color.CyanString("%.4f", snap.USDCToTarget), pair.Target.Symbol)
	fmt.Printf("  1 %s = %s %s\n", pair.Target.Symbol, color.CyanString("%.8f", snap.TargetToUSDC), pair.Base.Symbol)
	fmt.Printf("  Source:       %s\n", getColoredSource(snap))
	fmt.Printf("  Last Updated: %s\n", snap.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredSource(snap types.ExchangeRateSnapshot) string {
	switch {
	case !snap.Success:
		return color.RedString(snap.Source)
	case snap.Source == rates.SourceOnChain || snap.Source == rates.SourceOracle:
		return color.GreenString(snap.Source)
	default:
		return color.YellowString(snap.Source)
	}
}

func runRateHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	records, err := a.reconciler.History(ctx, historyLimit)
	if err != nil {
		printError(err)
		return
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		printSuccess("No cached snapshots yet. Run 'oneramp-rates rate' to fetch one.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              RATE HISTORY (%s)", a.reconciler.Pair())
	fmt.Println(strings.Repeat("=", 90))

	for _, rec := range records {
		fmt.Printf("  %s  %14.4f  %14.8f  %s  %s\n",
			rec.Snapshot.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Snapshot.USDCToTarget,
			rec.Snapshot.TargetToUSDC,
			color.CyanString(rec.Snapshot.Source),
			color.HiBlackString(rec.ID.String()[:8]))
	}

	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d snapshots\n\n", len(records))
}
