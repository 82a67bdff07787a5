package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sartorproj/steelcast/timeseries"
)

func monthlyIndex(start time.Time, n int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = 300 + float64(i)*0.8 + 15*math.Sin(2*math.Pi*float64(i)/12) + float64(i%3)
	}
	s := timeseries.NewMonthly(start, values)
	s.Name = "WPU1012"
	return s
}

func TestHorizon(t *testing.T) {
	tests := []struct {
		name   string
		last   time.Time
		target int
		want   int
	}{
		{"august to two years out", time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), 2027, 28},
		{"december to next year", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), 2026, 12},
		{"january", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 2025, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Horizon(tt.last, tt.target)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected horizon %d, got %d", tt.want, got)
			}
		})
	}
}

func TestHorizonTargetNotFuture(t *testing.T) {
	last := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	for _, year := range []int{2025, 2020} {
		if _, err := Horizon(last, year); !errors.Is(err, ErrTargetYearNotFuture) {
			t.Errorf("Year %d: expected ErrTargetYearNotFuture, got %v", year, err)
		}
	}
}

func TestSARIMAForecast(t *testing.T) {
	series := monthlyIndex(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), 128)

	res, err := NewSARIMA().Forecast(context.Background(), series, 28)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if res.Horizon != 28 || res.Series.Len() != 28 {
		t.Fatalf("Expected 28 forecast points, got horizon=%d len=%d", res.Horizon, res.Series.Len())
	}

	last, _, _ := series.Last()
	prev := last
	for i, ts := range res.Series.Timestamps {
		if timeseries.MonthsBetween(prev, ts) != 1 || ts.Day() != 1 {
			t.Errorf("Point %d at %s does not follow %s", i, ts.Format("2006-01-02"), prev.Format("2006-01"))
		}
		prev = ts
	}
	if got := res.Series.Timestamps[27]; got.Year() != 2027 || got.Month() != time.December {
		t.Errorf("Expected final point in 2027-12, got %s", got.Format("2006-01"))
	}
	for i, v := range res.Series.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Point %d is not finite", i)
		}
	}
}

func TestSARIMAForecastDeterministic(t *testing.T) {
	series := monthlyIndex(time.Date(2016, time.March, 1, 0, 0, 0, 0, time.UTC), 96)
	f := NewSARIMA()

	a, err := f.Forecast(context.Background(), series, 12)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Forecast(context.Background(), series, 12)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Series.Values {
		if a.Series.Values[i] != b.Series.Values[i] {
			t.Fatalf("Point %d differs between identical runs: %f vs %f", i, a.Series.Values[i], b.Series.Values[i])
		}
	}
}

func TestSARIMAForecastShortSeries(t *testing.T) {
	f := NewSARIMA()
	if f.MinObservations() != 24 {
		t.Errorf("Expected minimum 24 observations, got %d", f.MinObservations())
	}

	series := monthlyIndex(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), 20)
	if _, err := f.Forecast(context.Background(), series, 12); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected ErrNotConverged, got %v", err)
	}
	if _, err := f.Forecast(context.Background(), nil, 12); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected ErrNotConverged for nil series, got %v", err)
	}
}

func TestSARIMAForecastInvalidHorizon(t *testing.T) {
	series := monthlyIndex(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), 60)
	if _, err := NewSARIMA().Forecast(context.Background(), series, 0); !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("Expected ErrInvalidHorizon, got %v", err)
	}
}

func TestSARIMAForecastCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := monthlyIndex(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), 60)
	if _, err := NewSARIMA().Forecast(ctx, series, 12); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
