package journal

import (
	"database/sql"
	"errors"
	"time"
)

// ListTradesClosedBetween returns trades with exit_time in [start, end),
// oldest first. Used for run summaries and reporting.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, instrument, quantity, entry_price, exit_price,
		       entry_time, exit_time, realized_pl, commission, reason
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.Instrument, &t.Quantity, &t.EntryPrice, &t.ExitPrice,
			&t.EntryTime, &t.ExitTime, &t.RealizedPL, &t.Commission, &t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LastCapital returns the most recent capital snapshot for an instrument.
// ok is false when no snapshot has been recorded yet.
func (j *SQLite) LastCapital(instrument string) (float64, bool, error) {
	row := j.db.QueryRow(`
		SELECT capital FROM capital
		WHERE instrument = ?
		ORDER BY time DESC LIMIT 1`,
		instrument,
	)

	var capital float64
	switch err := row.Scan(&capital); {
	case err == nil:
		return capital, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	default:
		return 0, false, err
	}
}
