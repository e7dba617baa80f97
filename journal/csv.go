package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades  *csv.Writer
	capital *csv.Writer
	tf, cf  *os.File
}

func NewCSV(tradesPath, capitalPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	cf, err := os.Create(capitalPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	cw := csv.NewWriter(cf)

	if err := tw.Write([]string{"trade_id", "instrument", "quantity", "entry_price", "exit_price", "entry_time", "exit_time", "realized_pl", "commission", "reason"}); err != nil {
		return nil, err
	}
	if err := cw.Write([]string{"time", "instrument", "capital"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, cw, tf, cf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		strconv.FormatInt(t.Quantity, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.RealizedPL),
		f(t.Commission),
		t.Reason,
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordCapital(c CapitalSnapshot) error {
	err := j.capital.Write([]string{
		c.Time.Format(time.RFC3339),
		c.Instrument,
		f(c.Capital),
	})
	if err != nil {
		return err
	}

	j.capital.Flush()
	return j.capital.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.capital.Flush()
	if err := j.capital.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.cf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
