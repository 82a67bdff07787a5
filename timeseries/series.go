// Package timeseries provides the monthly time series type used by the forecaster.
package timeseries

import (
	"errors"
	"time"
)

// Series represents a time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// epoch anchors series built without explicit timestamps.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// New creates a monthly series from values, starting at January 2000.
func New(values []float64) *Series {
	return NewMonthly(epoch, values)
}

// NewMonthly creates a series whose timestamps start at the month of start
// and advance by one calendar month per value.
func NewMonthly(start time.Time, values []float64) *Series {
	first := MonthStart(start)
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = first.AddDate(0, i, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Last returns the final observation. ok is false for an empty series or one
// without timestamps.
func (s *Series) Last() (ts time.Time, value float64, ok bool) {
	n := len(s.Values)
	if n == 0 || len(s.Timestamps) != n {
		return time.Time{}, 0, false
	}
	return s.Timestamps[n-1], s.Values[n-1], true
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the lag-n difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Values: []float64{}}
	}

	result := make([]float64, len(s.Values)-n)
	for i := n; i < len(s.Values); i++ {
		result[i-n] = s.Values[i] - s.Values[i-n]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > n {
		copy(timestamps, s.Timestamps[n:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_diff",
	}
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	d := s.DiffN(m)
	if d.Len() > 0 {
		d.Name = s.Name + "_seasonal_diff"
	}
	return d
}

// InYear returns the observations whose timestamp falls in the given
// calendar year.
func (s *Series) InYear(year int) *Series {
	out := &Series{Name: s.Name}
	for i, ts := range s.Timestamps {
		if i >= len(s.Values) {
			break
		}
		if ts.Year() == year {
			out.Timestamps = append(out.Timestamps, ts)
			out.Values = append(out.Values, s.Values[i])
		}
	}
	return out
}

// Continuation returns the n monthly timestamps that follow the last
// observation of the series.
func (s *Series) Continuation(n int) []time.Time {
	last, _, ok := s.Last()
	if !ok || n <= 0 {
		return nil
	}
	return MonthsAfter(last, n)
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}
