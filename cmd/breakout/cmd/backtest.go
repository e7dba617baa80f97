package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/backtest"
	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate one parameter set over historical bars",
	Long: `Backtest replays a bar CSV (time,open,high,low,close,volume) through
the breakout strategy with a fixed parameter set and prints the trade
ledger and summary.

Example:
  breakout backtest -b data/GAZP_1min.csv --lookback 20 --delta 0.002 --tp 0.01 --sl 0.005`,
	RunE: runBacktestCmd,
}

var (
	btBarsPath   string
	btCapital    float64
	btCommission float64
	btRiskPct    float64
	btLookback   int
	btDelta      float64
	btTakeProfit float64
	btStopLoss   float64
	btVerbose    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (time,open,high,low,close,volume) (required)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 50_000, "starting capital")
	backtestCmd.Flags().Float64Var(&btCommission, "commission", 0.0004, "commission per side as a fraction of notional")
	backtestCmd.Flags().Float64Var(&btRiskPct, "risk", 0.02, "risk percent per trade (0.02 = 2%)")
	backtestCmd.Flags().IntVar(&btLookback, "lookback", 20, "rolling window, in bars")
	backtestCmd.Flags().Float64Var(&btDelta, "delta", 0.002, "minimum breakout fraction above the rolling high")
	backtestCmd.Flags().Float64Var(&btTakeProfit, "tp", 0.01, "take-profit fraction")
	backtestCmd.Flags().Float64Var(&btStopLoss, "sl", 0.005, "stop-loss fraction")
	backtestCmd.Flags().BoolVarP(&btVerbose, "verbose", "v", false, "print every trade")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	series, err := market.LoadCSV(btBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	p := strategy.Params{
		Lookback:   btLookback,
		Delta:      btDelta,
		TakeProfit: btTakeProfit,
		StopLoss:   btStopLoss,
	}

	sim := backtest.NewSimulator(backtest.Config{
		InitialCapital: btCapital,
		Commission:     btCommission,
		RiskPct:        btRiskPct,
	})
	trades, summary := sim.Run(series, p)

	if btVerbose {
		for _, t := range trades {
			fmt.Printf("%s  %4d @ %.2f -> %.2f  %-10s  pnl %+.2f\n",
				t.ExitTime.Format("2006-01-02 15:04"), t.Quantity,
				t.EntryPrice, t.ExitPrice, t.Reason, t.RealizedPL)
		}
	}

	fmt.Printf("bars:     %d\n", series.Len())
	fmt.Printf("params:   %s\n", p)
	fmt.Printf("trades:   %d (%d wins, %d losses)\n", summary.Trades, summary.Wins, summary.Losses)
	fmt.Printf("capital:  %.2f -> %.2f\n", btCapital, summary.EndCapital)
	fmt.Printf("return:   %+.2f%%\n", summary.ReturnPct)
	return nil
}
