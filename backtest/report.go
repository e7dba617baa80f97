package backtest

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
)

// ScanRow is one instrument's best grid cell in a multi-ticker scan.
type ScanRow struct {
	Ticker string
	OptimizationResult
}

// WriteScanCSV writes scan results sorted by return (best first).
func WriteScanCSV(path string, rows []ScanRow) error {
	sorted := make([]ScanRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReturnPct > sorted[j].ReturnPct
	})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"ticker", "pnl_pct", "lookback", "delta", "tp", "sl", "trades", "wins", "losses",
	}); err != nil {
		return err
	}

	for _, r := range sorted {
		rec := []string{
			r.Ticker,
			strconv.FormatFloat(r.ReturnPct, 'f', 2, 64),
			strconv.Itoa(r.Params.Lookback),
			strconv.FormatFloat(r.Params.Delta, 'f', 4, 64),
			strconv.FormatFloat(r.Params.TakeProfit, 'f', 4, 64),
			strconv.FormatFloat(r.Params.StopLoss, 'f', 4, 64),
			strconv.Itoa(r.Trades),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
