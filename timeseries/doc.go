// Package timeseries provides monthly time series data structures and utilities.
//
// This package includes the Series type for representing index observations,
// along with functions for CSV loading, calendar alignment and slicing by year.
//
// # Loading from CSV
//
// Load a FRED-style monthly export:
//
//	series, err := timeseries.LoadCSV("WPU1012.csv", timeseries.DefaultCSVOptions())
//
// Custom columns:
//
//	opts := &timeseries.CSVOptions{
//	    DateColumn:  "date",
//	    ValueColumn: "index",
//	}
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
//
// # Monthly Alignment
//
// Forecasting assumes one observation per calendar month. AlignMonthly
// truncates timestamps to the first of the month, sorts them, rejects
// duplicates and interpolates interior gaps:
//
//	aligned, err := timeseries.AlignMonthly(series)
//	if err := timeseries.ValidatePositive(aligned); err != nil {
//	    // malformed index
//	}
//
// # Calendar Helpers
//
//	last, value, _ := aligned.Last()
//	next := aligned.Continuation(12)        // the next 12 month starts
//	y2027 := forecast.InYear(2027)          // observations dated in 2027
//	months := timeseries.MonthsBetween(a, b)
//
// # Differencing
//
//	diff := series.Diff()             // First difference
//	sdiff := series.SeasonalDiff(12)  // Seasonal difference
package timeseries
