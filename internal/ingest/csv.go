// Package ingest loads metric series from delimited files and resolves named
// sources configured for the chart service.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/xmrchart/internal/analytics"
)

var (
	// ErrColumnNotFound is returned when a configured column is missing from the header
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidDate is returned for a row whose date cannot be parsed
	ErrInvalidDate = errors.New("invalid date")
)

// dateLayouts are tried in order. A bare month is read as the first of the month.
var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateField  string  // Header of the date column (default: "date")
	ValueField string  // Header of the value column (default: "value")
	Scale      float64 // Multiplier applied to every value (default: 1)
	Delimiter  rune    // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		DateField:  "date",
		ValueField: "value",
		Scale:      1,
		Delimiter:  ',',
	}
}

func (o CSVOptions) withDefaults() CSVOptions {
	d := DefaultCSVOptions()
	if o.DateField == "" {
		o.DateField = d.DateField
	}
	if o.ValueField == "" {
		o.ValueField = d.ValueField
	}
	if o.Scale == 0 {
		o.Scale = d.Scale
	}
	if o.Delimiter == 0 {
		o.Delimiter = d.Delimiter
	}
	return o
}

// LoadCSV loads a series from a CSV file.
func LoadCSV(filename string, opts CSVOptions) (analytics.TimeSeriesData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return ReadCSV(file, opts)
}

// ReadCSV reads a series from r. The first row must be a header. Rows with an
// empty, null or non-numeric value are skipped; a row with an unparseable date
// is an error. Rows are returned in file order.
func ReadCSV(r io.Reader, opts CSVOptions) (analytics.TimeSeriesData, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch h {
		case opts.DateField:
			dateIdx = i
		case opts.ValueField:
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, opts.DateField)
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, opts.ValueField)
	}

	data := make(analytics.TimeSeriesData, 0)
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		if valueIdx >= len(record) {
			continue
		}
		value, ok := ParseValue(record[valueIdx])
		if !ok {
			continue
		}

		if dateIdx >= len(record) {
			return nil, fmt.Errorf("%w: row %d has no date", ErrInvalidDate, row)
		}
		ts, err := ParseDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		data = append(data, analytics.TimeSeriesPoint{
			Time:  ts,
			Value: value * opts.Scale,
		})
	}

	return data, nil
}

// ParseDate parses a month (2006-01), a day (2006-01-02) or an RFC 3339
// timestamp. Results are in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseValue parses a numeric cell. Empty, null-like and non-finite cells
// report false.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "na", "n/a", "nan", "none":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !analytics.IsFinite(v) {
		return 0, false
	}
	return v, true
}
