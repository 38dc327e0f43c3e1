// Package feed produces tick series for replay: CSV files exported from
// market data and deterministic synthetic walks for validation runs.
package feed

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	apperrors "outcome-trader/internal/errors"
	"outcome-trader/internal/models"
)

// csvTick is the on-disk row shape: an RFC 3339 timestamp and a decimal
// price in (0, 1).
type csvTick struct {
	Timestamp string `csv:"timestamp"`
	Price     string `csv:"price"`
}

// LoadCSV reads a tick series from path. Rows must be sorted or sortable by
// timestamp; the returned slice is always in ascending time order.
func LoadCSV(path string) ([]models.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}
	defer f.Close()

	var rows []*csvTick
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse tick file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyTickSeries
	}

	ticks := make([]models.Tick, 0, len(rows))
	for i, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q: %w", i+1, row.Timestamp, err)
		}
		d, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad price %q: %w", i+1, row.Price, err)
		}
		price, err := models.NewPrice(d)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		ticks = append(ticks, models.Tick{Timestamp: ts.UTC(), Price: price})
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
	return ticks, nil
}

// WriteCSV writes a tick series to path in the same format LoadCSV reads.
func WriteCSV(path string, ticks []models.Tick) error {
	rows := make([]*csvTick, 0, len(ticks))
	for _, t := range ticks {
		rows = append(rows, &csvTick{
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
			Price:     t.Price.String(),
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tick file: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write tick file %s: %w", path, err)
	}
	return nil
}
