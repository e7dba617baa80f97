package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "breakout",
	Short: "A breakout signal engine with daily grid-search recalibration",
	Long: `Breakout trades intraday price breakouts above a rolling high with a
volume filter, recalibrating its parameters once per trading day by
grid-searching a trailing history window.

It provides tools for:
  - Running the live engine in signal-only or real-order mode
  - Backtesting a parameter set against historical bar data
  - Scanning tickers with the full parameter grid
  - Downloading minute bars to CSV for offline research
  - Risk-based integer position sizing
  - SQLite and CSV trade journaling

Complete documentation is available at https://github.com/rustyeddy/breakout`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
