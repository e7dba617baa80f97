package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// LoadCSV reads a bar series from a CSV file with a
// time,open,high,low,close,volume header. Rows must be oldest first;
// out-of-order rows are rejected the same way Append rejects them.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	s := NewSeries(len(records) - 1)
	for i, rec := range records[1:] {
		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		if !s.Append(b) {
			return nil, fmt.Errorf("%s row %d: bar out of order", path, i+2)
		}
	}
	return s, nil
}

func parseRow(rec []string) (Bar, error) {
	if len(rec) != 6 {
		return Bar{}, fmt.Errorf("want 6 columns, got %d", len(rec))
	}

	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Bar{}, fmt.Errorf("parse time: %w", err)
	}

	var vals [5]float64
	for i, s := range rec[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("parse %s: %w", csvHeader[i+1], err)
		}
		vals[i] = v
	}

	return Bar{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// WriteCSV writes a bar slice to path in the LoadCSV format.
func WriteCSV(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
