package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/steelcast/forecast"
	"github.com/sartorproj/steelcast/timeseries"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func forecastFrom(start time.Time, values ...float64) *forecast.Result {
	return &forecast.Result{Series: timeseries.NewMonthly(start, values), Horizon: len(values)}
}

func TestNewCalibrationPoint(t *testing.T) {
	cal, err := NewCalibrationPoint(d("100"), d("375"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cal.PricePerIndexPoint().Equal(d("3.75")) {
		t.Errorf("Expected 3.75 per point, got %s", cal.PricePerIndexPoint())
	}

	for _, idx := range []string{"0", "-1"} {
		if _, err := NewCalibrationPoint(d(idx), d("375")); !errors.Is(err, ErrInvalidCalibration) {
			t.Errorf("Index %s: expected ErrInvalidCalibration, got %v", idx, err)
		}
	}
	if _, err := NewCalibrationPoint(d("100"), d("-5")); err == nil {
		t.Error("Expected error for negative price")
	}
}

func TestConvert(t *testing.T) {
	// Two months of 2026 then a full 2027 averaging 110.
	values := []float64{90, 95}
	for range 12 {
		values = append(values, 110)
	}
	res := forecastFrom(time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), values...)

	cal, _ := NewCalibrationPoint(d("100"), d("375"))
	q, err := Convert(res, 2027, cal)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if !q.Price.Equal(d("412.5")) {
		t.Errorf("Expected price 412.5, got %s", q.Price)
	}
	if q.Months != 12 {
		t.Errorf("Expected 12 months, got %d", q.Months)
	}
	if !q.MeanIndex.Equal(d("110")) {
		t.Errorf("Expected mean index 110, got %s", q.MeanIndex)
	}
	if q.Year != 2027 {
		t.Errorf("Expected year 2027, got %d", q.Year)
	}
}

func TestConvertPartialYear(t *testing.T) {
	// Only three months of the target year present.
	res := forecastFrom(time.Date(2027, time.October, 1, 0, 0, 0, 0, time.UTC), 100, 110, 120)

	cal, _ := NewCalibrationPoint(d("100"), d("375"))
	q, err := Convert(res, 2027, cal)
	if err != nil {
		t.Fatal(err)
	}
	if q.Months != 3 || !q.Price.Equal(d("412.5")) {
		t.Errorf("Expected 3 months at 412.5, got %d months at %s", q.Months, q.Price)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	cals := []CalibrationPoint{
		{Index: d("100"), Price: d("375")},
		{Index: d("287.3"), Price: d("412.17")},
		{Index: d("3"), Price: d("1")},
	}

	for _, cal := range cals {
		if got := Scale(cal.Index, cal); !got.Equal(cal.Price) {
			t.Errorf("Scale(%s) = %s, want %s", cal.Index, got, cal.Price)
		}
	}
}

func TestConvertNoMonthsInYear(t *testing.T) {
	res := forecastFrom(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), 100, 101)
	cal, _ := NewCalibrationPoint(d("100"), d("375"))

	if _, err := Convert(res, 2027, cal); !errors.Is(err, ErrNoForecastForYear) {
		t.Errorf("Expected ErrNoForecastForYear, got %v", err)
	}
	if _, _, err := YearMean(nil, 2027); !errors.Is(err, ErrNoForecastForYear) {
		t.Errorf("Expected ErrNoForecastForYear for nil result, got %v", err)
	}
}

func TestConvertInvalidCalibration(t *testing.T) {
	res := forecastFrom(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), 100)
	if _, err := Convert(res, 2027, CalibrationPoint{}); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("Expected ErrInvalidCalibration, got %v", err)
	}
}
