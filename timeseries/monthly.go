package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrEmpty is returned when a series has no observations.
	ErrEmpty = errors.New("series is empty")
	// ErrDuplicateMonth is returned when two observations map to the same month.
	ErrDuplicateMonth = errors.New("duplicate observation for month")
	// ErrNonPositive is returned when an index value is zero, negative or not finite.
	ErrNonPositive = errors.New("index values must be positive and finite")
)

// MonthStart truncates t to midnight UTC on the first day of its month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsAfter returns the n month-start timestamps following t.
func MonthsAfter(t time.Time, n int) []time.Time {
	first := MonthStart(t)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = first.AddDate(0, i+1, 0)
	}
	return out
}

// MonthsBetween returns the number of whole calendar months from a to b.
// The result is negative when b precedes a.
func MonthsBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// AlignMonthly returns a copy of s placed on a month-start cadence.
//
// Timestamps are truncated to the first of their month and sorted. Two
// observations in the same month are rejected. Interior months with no
// observation are filled by linear interpolation between the neighbours.
func AlignMonthly(s *Series) (*Series, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrEmpty
	}
	if len(s.Timestamps) != len(s.Values) {
		return nil, errors.New("timestamps and values must have the same length")
	}

	type obs struct {
		ts    time.Time
		value float64
	}
	rows := make([]obs, s.Len())
	for i := range rows {
		rows[i] = obs{ts: MonthStart(s.Timestamps[i]), value: s.Values[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	for i := 1; i < len(rows); i++ {
		if rows[i].ts.Equal(rows[i-1].ts) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMonth, rows[i].ts.Format("2006-01"))
		}
	}

	first := rows[0].ts
	span := MonthsBetween(first, rows[len(rows)-1].ts) + 1
	values := make([]float64, span)
	timestamps := make([]time.Time, span)

	prev := rows[0]
	values[0] = prev.value
	timestamps[0] = first
	for _, r := range rows[1:] {
		from := MonthsBetween(first, prev.ts)
		to := MonthsBetween(first, r.ts)
		gap := to - from
		for k := 1; k < gap; k++ {
			frac := float64(k) / float64(gap)
			values[from+k] = prev.value + frac*(r.value-prev.value)
		}
		values[to] = r.value
		prev = r
	}
	for i := range timestamps {
		timestamps[i] = first.AddDate(0, i, 0)
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}, nil
}

// ValidatePositive checks that every value is finite and strictly positive.
func ValidatePositive(s *Series) error {
	if s == nil || s.Len() == 0 {
		return ErrEmpty
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			if i < len(s.Timestamps) {
				return fmt.Errorf("%w: %v at %s", ErrNonPositive, v, s.Timestamps[i].Format("2006-01"))
			}
			return fmt.Errorf("%w: %v at index %d", ErrNonPositive, v, i)
		}
	}
	return nil
}
