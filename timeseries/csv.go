package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for observation dates (default: "observation_date")
	ValueColumn string // Column name for index values (default: "WPU1012")
	DateFormat  string // Preferred date format (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns options matching the FRED monthly export layout.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "observation_date",
		ValueColumn: "WPU1012",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

// dateFormats are tried after the configured format.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads a time series from an io.Reader.
//
// Rows whose value is empty or a missing-value marker ("NA", "NaN", "null",
// ".") are skipped. A row whose date cannot be parsed is an error because
// every observation must be placed on the calendar.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("csv has no header row")
		}
		return nil, err
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case h == opts.ValueColumn:
			valueIdx = i
		case h == opts.DateColumn:
			dateIdx = i
		case dateIdx == -1 && (h == "ds" || h == "date" || h == "DATE"):
			dateIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("date column %q not found", opts.DateColumn)
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
	}

	var values []float64
	var timestamps []time.Time
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if valueIdx >= len(record) || dateIdx >= len(record) {
			continue
		}

		valStr := strings.TrimSpace(strings.Trim(record[valueIdx], "\""))
		if isMissing(valStr) {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", line, valStr, err)
		}

		dateStr := strings.TrimSpace(strings.Trim(record[dateIdx], "\""))
		ts, err := parseDate(dateStr, opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values = append(values, val)
		timestamps = append(timestamps, ts)
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       opts.ValueColumn,
	}, nil
}

// WriteCSV writes the series as "observation_date,<name>" rows.
func WriteCSV(w io.Writer, series *Series) error {
	name := series.Name
	if name == "" {
		name = "value"
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("observation_date," + name + "\n")
	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			bw.WriteString(series.Timestamps[i].Format("2006-01-02"))
		}
		bw.WriteString(",")
		bw.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func isMissing(s string) bool {
	switch s {
	case "", "NA", "NaN", "null", ".":
		return true
	}
	return false
}

func parseDate(s, preferred string) (time.Time, error) {
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, nil
		}
	}
	for _, f := range dateFormats {
		if ts, err := time.Parse(f, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
