// Package stats provides the autocorrelation estimates used to seed model
// coefficients before fitting.
package stats

// centered returns the deviations of values from their mean and the sum of
// their squares.
func centered(values []float64) ([]float64, float64) {
	if len(values) == 0 {
		return nil, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	dev := make([]float64, len(values))
	ss := 0.0
	for i, v := range values {
		dev[i] = v - mean
		ss += dev[i] * dev[i]
	}
	return dev, ss
}

func lagged(dev []float64, ss float64, k int) float64 {
	sum := 0.0
	for i := k; i < len(dev); i++ {
		sum += dev[i] * dev[i-k]
	}
	return sum / ss
}

// ACF returns the sample autocorrelation at lags 0..maxLag, with maxLag
// capped at len(values)-1. It returns nil for an empty or constant input.
func ACF(values []float64, maxLag int) []float64 {
	if maxLag >= len(values) {
		maxLag = len(values) - 1
	}
	if maxLag < 0 {
		return nil
	}

	dev, ss := centered(values)
	if ss == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		acf[k] = lagged(dev, ss, k)
	}
	return acf
}

// AtLags returns the sample autocorrelation at each requested lag. Lags
// outside [0, len(values)) yield 0. It returns nil for an empty or constant
// input.
func AtLags(values []float64, lags ...int) []float64 {
	dev, ss := centered(values)
	if ss == 0 {
		return nil
	}

	out := make([]float64, len(lags))
	for i, k := range lags {
		if k < 0 || k >= len(values) {
			continue
		}
		out[i] = lagged(dev, ss, k)
	}
	return out
}
