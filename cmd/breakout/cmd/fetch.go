package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/broker/tinkoff"
	"github.com/rustyeddy/breakout/fetch"
	"github.com/rustyeddy/breakout/market"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download minute bars to a CSV file",
	Long: `Fetch downloads completed minute bars for a ticker and writes them in
the bar CSV format the backtest and scan commands consume.

Requires TINKOFF_TOKEN in the environment.

Example:
  breakout fetch -t GAZP -n 5 -o data/GAZP_1min.csv`,
	RunE: runFetchCmd,
}

var (
	fetchTicker  string
	fetchFIGI    string
	fetchDays    int
	fetchOutPath string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchTicker, "ticker", "t", "", "ticker to download (required)")
	fetchCmd.Flags().StringVar(&fetchFIGI, "figi", "", "FIGI override (skips ticker resolution)")
	fetchCmd.Flags().IntVarP(&fetchDays, "days", "n", 5, "trailing days of history")
	fetchCmd.Flags().StringVarP(&fetchOutPath, "out", "o", "", "output CSV path (default <TICKER>_1min.csv)")

	fetchCmd.MarkFlagRequired("ticker")
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	client, err := tinkoff.FromEnv()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	policy := fetch.DefaultPolicy()

	figi := fetchFIGI
	if figi == "" {
		figi, err = fetch.Do(ctx, policy, func(ctx context.Context) (string, error) {
			return client.ResolveFIGI(ctx, fetchTicker)
		})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", fetchTicker, err)
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -fetchDays)
	bars, err := fetch.Do(ctx, policy, func(ctx context.Context) ([]market.Bar, error) {
		return client.HistoricalBars(ctx, figi, since, time.Minute)
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", fetchTicker, err)
	}

	out := fetchOutPath
	if out == "" {
		out = fetchTicker + "_1min.csv"
	}
	if err := market.WriteCSV(out, bars); err != nil {
		return err
	}

	fmt.Printf("wrote %d bars for %s (%s) to %s\n", len(bars), fetchTicker, figi, out)
	return nil
}
