// Package source loads the historical index series from a CSV file or a
// Postgres table.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sartorproj/steelcast/timeseries"
)

// ErrSeriesNotFound is returned when the series does not exist at the
// configured location.
var ErrSeriesNotFound = errors.New("index series not found")

// Source provides the raw observations of one index series.
type Source interface {
	Load(ctx context.Context) (*timeseries.Series, error)
}

// CSV reads a FRED-style export from disk on every Load.
type CSV struct {
	Path    string
	Options *timeseries.CSVOptions
}

// NewCSV returns a CSV source for path with the given column options.
func NewCSV(path string, opts *timeseries.CSVOptions) *CSV {
	if opts == nil {
		opts = timeseries.DefaultCSVOptions()
	}
	return &CSV{Path: path, Options: opts}
}

// Load parses the file.
func (c *CSV) Load(ctx context.Context) (*timeseries.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := timeseries.LoadCSV(c.Path, c.Options)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, c.Path)
	}
	return s, err
}

// Static serves a series held in memory.
type Static struct {
	Series *timeseries.Series
}

// Load returns a copy of the held series.
func (s Static) Load(context.Context) (*timeseries.Series, error) {
	if s.Series == nil {
		return nil, ErrSeriesNotFound
	}
	return s.Series.Copy(), nil
}
