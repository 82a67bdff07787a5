// Package forecast projects a monthly index forward with a fixed-order
// seasonal ARIMA model.
package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/sartorproj/steelcast/sarima"
	"github.com/sartorproj/steelcast/timeseries"
)

var (
	// ErrNotConverged is the failure signal: the model could not be fitted or
	// produced non-finite forecasts. Callers substitute a fallback price.
	ErrNotConverged = errors.New("forecast model did not converge")
	// ErrInvalidHorizon is returned for horizons below one month.
	ErrInvalidHorizon = errors.New("forecast horizon must be at least one month")
	// ErrTargetYearNotFuture is returned when the target year is not after
	// the last observed year.
	ErrTargetYearNotFuture = errors.New("target year must be after the last observed year")
)

// DefaultOrder is SARIMA(1,1,1)(1,1,1)[12].
var DefaultOrder = sarima.Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 12}

// Result is a forecast covering the months immediately after the last
// observation of the input series.
type Result struct {
	Series  *timeseries.Series
	Horizon int
}

// Forecaster produces point forecasts for a monthly series.
type Forecaster interface {
	Forecast(ctx context.Context, series *timeseries.Series, horizon int) (*Result, error)
}

// SARIMA fits a fresh model of a fixed order on every call.
type SARIMA struct {
	Order sarima.Order
}

// NewSARIMA returns a forecaster using DefaultOrder.
func NewSARIMA() *SARIMA {
	return &SARIMA{Order: DefaultOrder}
}

// MinObservations is the shortest series the forecaster can fit.
func (f *SARIMA) MinObservations() int {
	return f.Order.MinObservations()
}

// Forecast fits the model to series and forecasts horizon months ahead.
// Fit failures and non-finite output are reported as ErrNotConverged.
func (f *SARIMA) Forecast(ctx context.Context, series *timeseries.Series, horizon int) (res *Result, err error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNotConverged, timeseries.ErrEmpty)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: panic during fit: %v", ErrNotConverged, r)
		}
	}()

	model := sarima.NewWithOrder(f.Order)
	if err := model.Fit(series); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConverged, err)
	}

	values, err := model.Predict(horizon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConverged, err)
	}

	return newResult(series, values), nil
}

// newResult stamps values with the months following the last observation.
func newResult(history *timeseries.Series, values []float64) *Result {
	out := &timeseries.Series{
		Timestamps: history.Continuation(len(values)),
		Values:     values,
		Name:       history.Name + "_forecast",
	}
	return &Result{Series: out, Horizon: len(values)}
}
