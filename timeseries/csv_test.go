package timeseries

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `observation_date,WPU1012
2025-01-01,410.5
2025-02-01,415.2
2025-03-01,420.0`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 3 {
		t.Errorf("Expected 3 observations, got %d", series.Len())
	}

	expected := []float64{410.5, 415.2, 420.0}
	for i, v := range expected {
		if series.Values[i] != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.Values[i])
		}
	}

	want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !series.Timestamps[2].Equal(want) {
		t.Errorf("Expected last timestamp %v, got %v", want, series.Timestamps[2])
	}
	if series.Name != "WPU1012" {
		t.Errorf("Expected series name WPU1012, got %q", series.Name)
	}
}

func TestLoadCSVSkipsMissingValues(t *testing.T) {
	csvData := `observation_date,WPU1012
2025-01-01,100
2025-02-01,.
2025-03-01,NA
2025-04-01,103`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("Expected 2 observations after skipping missing values, got %d", series.Len())
	}
}

func TestLoadCSVCustomColumns(t *testing.T) {
	csvData := `date;index;other
2024-12-01;250;x
2025-01-01;255;y`

	opts := &CSVOptions{DateColumn: "date", ValueColumn: "index", Delimiter: ';'}
	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if series.Len() != 2 || series.Values[1] != 255 {
		t.Errorf("Unexpected series: %v", series.Values)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing value column", "observation_date,price\n2025-01-01,1"},
		{"missing date column", "when,WPU1012\n2025-01-01,1"},
		{"bad date", "observation_date,WPU1012\nyesterday,1"},
		{"bad value", "observation_date,WPU1012\n2025-01-01,abc"},
		{"no rows", "observation_date,WPU1012\n2025-01-01,NA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCSVFromReader(strings.NewReader(tt.data), nil); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := NewMonthly(start, []float64{1.5, 2})
	s.Name = "forecast"

	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "observation_date,forecast\n2026-01-01,1.5\n2026-02-01,2\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}

	back, err := LoadCSVFromReader(&buf, &CSVOptions{DateColumn: "observation_date", ValueColumn: "forecast"})
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if back.Len() != 2 {
		t.Errorf("Expected 2 rows after reload, got %d", back.Len())
	}
}
