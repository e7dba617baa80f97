package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/backtest"
	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/market"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Grid-search every ticker in a bar data directory",
	Long: `Scan runs the full parameter grid against every *_1min.csv file in a
data directory, prints the best cell per ticker and writes the ranking
to a CSV report.

Example:
  breakout scan -d data -o scan_results.csv`,
	RunE: runScanCmd,
}

var (
	scanDataDir    string
	scanOutPath    string
	scanConfigPath string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanDataDir, "data", "d", "data", "directory of <TICKER>_1min.csv bar files")
	scanCmd.Flags().StringVarP(&scanOutPath, "out", "o", "scan_results.csv", "path for the CSV report")
	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "c", "", "optional config file for capital/commission/grid")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if scanConfigPath != "" {
		loaded, err := config.LoadFromFile(scanConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	paths, err := filepath.Glob(filepath.Join(scanDataDir, "*_1min.csv"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no *_1min.csv files in %s", scanDataDir)
	}

	opt := backtest.Optimizer{
		Sim: backtest.Config{
			InitialCapital: cfg.Account.Capital,
			Commission:     cfg.Strategy.Commission,
			RiskPct:        cfg.Strategy.RiskPercent,
		},
		Grid: cfg.Grid(),
	}

	var rows []backtest.ScanRow
	for _, path := range paths {
		ticker := strings.TrimSuffix(filepath.Base(path), "_1min.csv")

		series, err := market.LoadCSV(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ticker, err)
			continue
		}

		best, err := opt.Optimize(series)
		if err != nil {
			if errors.Is(err, backtest.ErrInsufficientData) {
				fmt.Fprintf(os.Stderr, "%s: %v\n", ticker, err)
				continue
			}
			return fmt.Errorf("%s: %w", ticker, err)
		}

		fmt.Printf("%-8s %s\n", ticker, best)
		rows = append(rows, backtest.ScanRow{Ticker: ticker, OptimizationResult: best})
	}

	if len(rows) == 0 {
		return fmt.Errorf("no ticker produced a result")
	}

	if err := backtest.WriteScanCSV(scanOutPath, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("wrote %d rows to %s\n", len(rows), scanOutPath)
	return nil
}
