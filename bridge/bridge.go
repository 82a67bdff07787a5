// Package bridge converts a forecasted index level into an absolute price
// through a single calibration point.
package bridge

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/steelcast/forecast"
)

var (
	// ErrNoForecastForYear is returned when no forecast point falls in the
	// requested year.
	ErrNoForecastForYear = errors.New("no forecast points in target year")
	// ErrInvalidCalibration is returned for a calibration index that is not
	// positive.
	ErrInvalidCalibration = errors.New("calibration index must be positive")
)

// CalibrationPoint pairs a known index level with the price observed at
// that level.
type CalibrationPoint struct {
	Index decimal.Decimal
	Price decimal.Decimal
}

// NewCalibrationPoint validates and returns a calibration point.
func NewCalibrationPoint(index, price decimal.Decimal) (CalibrationPoint, error) {
	if !index.IsPositive() {
		return CalibrationPoint{}, fmt.Errorf("%w: got %s", ErrInvalidCalibration, index)
	}
	if price.IsNegative() {
		return CalibrationPoint{}, fmt.Errorf("calibration price must not be negative: got %s", price)
	}
	return CalibrationPoint{Index: index, Price: price}, nil
}

// PricePerIndexPoint is Price / Index.
func (c CalibrationPoint) PricePerIndexPoint() decimal.Decimal {
	return c.Price.Div(c.Index)
}

// Quote is the outcome of bridging a forecast year into a price.
type Quote struct {
	Year               int
	Months             int
	MeanIndex          decimal.Decimal
	PricePerIndexPoint decimal.Decimal
	Price              decimal.Decimal
}

// YearMean averages the forecast points dated in year. It returns the mean
// and the number of months it covers.
func YearMean(res *forecast.Result, year int) (decimal.Decimal, int, error) {
	if res == nil || res.Series == nil {
		return decimal.Zero, 0, fmt.Errorf("%w: %d", ErrNoForecastForYear, year)
	}

	points := res.Series.InYear(year)
	if points.Len() == 0 {
		return decimal.Zero, 0, fmt.Errorf("%w: %d", ErrNoForecastForYear, year)
	}

	sum := decimal.Zero
	for _, v := range points.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, 0, fmt.Errorf("%w: non-finite value in %d", forecast.ErrNotConverged, year)
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}

	n := points.Len()
	return sum.Div(decimal.NewFromInt(int64(n))), n, nil
}

// Convert scales the mean forecast index for year into a price using cal.
// The product is formed before the division so a mean equal to the
// calibration index maps exactly to the calibration price.
func Convert(res *forecast.Result, year int, cal CalibrationPoint) (Quote, error) {
	if !cal.Index.IsPositive() {
		return Quote{}, ErrInvalidCalibration
	}

	mean, n, err := YearMean(res, year)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Year:               year,
		Months:             n,
		MeanIndex:          mean,
		PricePerIndexPoint: cal.PricePerIndexPoint(),
		Price:              Scale(mean, cal),
	}, nil
}

// Scale maps an index level to a price: level × Price / Index.
func Scale(level decimal.Decimal, cal CalibrationPoint) decimal.Decimal {
	return level.Mul(cal.Price).Div(cal.Index)
}
