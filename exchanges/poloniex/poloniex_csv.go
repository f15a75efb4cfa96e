package poloniex

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// lendingHistoryFile is the exchange's own export filename, expected inside
// the configured data directory
const lendingHistoryFile = "lendingHistory.csv"

// Column layout of the exchange's lending history export
const (
	csvCurrency = iota
	csvRate
	csvAmount
	csvDuration
	csvInterest
	csvFee
	csvEarned
	csvOpen
	csvClose
	csvColumnCount
)

// LoadLendingHistoryCSV parses a lendingHistory.csv export from the data
// directory, bypassing the network path entirely. The export carries no loan
// ids, so returned rows have a zero ID.
func (p *Poloniex) LoadLendingHistoryCSV() ([]LendingHistory, error) {
	path := filepath.Join(p.DataDir, lendingHistoryFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var history []LendingHistory
	for i, row := range rows {
		if i == 0 {
			// header row
			continue
		}
		if len(row) < csvColumnCount {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d",
				path, i+1, csvColumnCount, len(row))
		}

		entry := LendingHistory{Currency: row[csvCurrency]}
		for _, col := range []struct {
			field *decimal.Decimal
			index int
		}{
			{&entry.Rate, csvRate},
			{&entry.Amount, csvAmount},
			{&entry.Duration, csvDuration},
			{&entry.Interest, csvInterest},
			{&entry.Fee, csvFee},
			{&entry.Earned, csvEarned},
		} {
			*col.field, err = decimal.NewFromString(row[col.index])
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w", path, i+1, col.index, err)
			}
		}

		open, err := time.ParseInLocation(datetimeFormat, row[csvOpen], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		closed, err := time.ParseInLocation(datetimeFormat, row[csvClose], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		entry.Open = Time(open)
		entry.Close = Time(closed)

		history = append(history, entry)
	}
	return history, nil
}
