// Package sarima implements Seasonal ARIMA (SARIMA) models.
package sarima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/steelcast/stats"
	"github.com/sartorproj/steelcast/timeseries"
)

var (
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNotFitted is returned when predicting from a model that has not been fitted.
	ErrNotFitted = errors.New("model must be fitted before prediction")
	// ErrNonFinite is returned when estimation or forecasting produces NaN or Inf.
	ErrNonFinite = errors.New("non-finite value during estimation")
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// String formats the order as SARIMA(p,d,q)(P,D,Q)[m].
func (o Order) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// maxLag is the longest lag the recursion reaches into the differenced series.
func (o Order) maxLag() int {
	return max(max(o.P, o.Q), max(o.SP*o.M, o.SQ*o.M))
}

// MinObservations is the shortest series Fit attempts: differencing must
// leave more points than estimated parameters, and a seasonal model needs
// at least two full cycles.
func (o Order) MinObservations() int {
	return max(o.D+o.SD*o.M+o.P+o.Q+o.SP+o.SQ+2, 2*o.M)
}

// Model represents a SARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // Non-seasonal AR coefficients
	MACoeffs   []float64 // Non-seasonal MA coefficients
	SARCoeffs  []float64 // Seasonal AR coefficients
	SMACoeffs  []float64 // Seasonal MA coefficients
	Intercept  float64
	Variance   float64
	Iterations int
	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
}

// New creates a new SARIMA model with the specified order.
func New(p, d, q, sp, sd, sq, m int) *Model {
	return NewWithOrder(Order{
		P: p, D: d, Q: q,
		SP: sp, SD: sd, SQ: sq, M: m,
	})
}

// NewWithOrder creates a new SARIMA model from an Order value.
func NewWithOrder(o Order) *Model {
	return &Model{
		Order:     o,
		ARCoeffs:  make([]float64, o.P),
		MACoeffs:  make([]float64, o.Q),
		SARCoeffs: make([]float64, o.SP),
		SMACoeffs: make([]float64, o.SQ),
	}
}

// Fitted reports whether Fit completed successfully.
func (m *Model) Fitted() bool {
	return m.fitted
}

// Fit fits the SARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	m.fitted = false

	if series == nil || series.Len() < m.Order.MinObservations() {
		n := 0
		if series != nil {
			n = series.Len()
		}
		return fmt.Errorf("%w: have %d, need %d for %s",
			ErrInsufficientData, n, m.Order.MinObservations(), m.Order)
	}

	m.data = series

	// Apply non-seasonal differencing
	diffSeries := series
	for i := 0; i < m.Order.D; i++ {
		diffSeries = diffSeries.Diff()
		if diffSeries.Len() == 0 {
			return errors.New("differencing resulted in empty series")
		}
	}

	// Apply seasonal differencing
	for i := 0; i < m.Order.SD; i++ {
		diffSeries = diffSeries.SeasonalDiff(m.Order.M)
		if diffSeries.Len() == 0 {
			return errors.New("seasonal differencing resulted in empty series")
		}
	}

	m.diffData = diffSeries

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.fitted = true
	return nil
}

// fitCSS fits the model using Conditional Sum of Squares estimation.
func (m *Model) fitCSS() error {
	y := m.diffData.Values
	p := m.Order.P
	sp := m.Order.SP
	period := m.Order.M

	m.Intercept = m.diffData.Mean()

	// Seed AR terms with half the autocorrelation at their lags.
	lags := make([]int, 0, p+sp)
	for i := 1; i <= p; i++ {
		lags = append(lags, i)
	}
	for i := 1; i <= sp; i++ {
		lags = append(lags, i*period)
	}
	if acf := stats.AtLags(y, lags...); acf != nil {
		for i := 0; i < p; i++ {
			m.ARCoeffs[i] = acf[i] * 0.5
		}
		for i := 0; i < sp; i++ {
			m.SARCoeffs[i] = acf[p+i] * 0.5
		}
	}

	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	for i := range m.SMACoeffs {
		m.SMACoeffs[i] = 0.1
	}

	return m.optimizeCSS(y)
}

// predictAt returns the one-step prediction for position t given the
// (differenced) observations and residuals. MA terms only use residuals
// before known; later residuals are treated as zero.
func (m *Model) predictAt(y, residuals []float64, t, known int) float64 {
	period := m.Order.M
	pred := m.Intercept

	// Non-seasonal AR component
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}

	// Seasonal AR component
	for i := 0; i < m.Order.SP; i++ {
		lag := (i + 1) * period
		if t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Intercept)
		}
	}

	// Non-seasonal MA component
	for i := 0; i < m.Order.Q && t-i-1 >= 0 && t-i-1 < known; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}

	// Seasonal MA component
	for i := 0; i < m.Order.SQ; i++ {
		lag := (i + 1) * period
		if t-lag >= 0 && t-lag < known {
			pred += m.SMACoeffs[i] * residuals[t-lag]
		}
	}

	return pred
}

// Gradient descent settings for the CSS optimiser.
const (
	fitMaxIter      = 200
	fitTolerance    = 1e-8
	fitLearningRate = 0.005
	fitMomentum     = 0.9
	fitDecay        = 0.99
	fitPatience     = 20
	coeffBound      = 0.99
)

// Coefficient blocks in optimiser order.
const (
	blockAR = iota
	blockSAR
	blockMA
	blockSMA
	numBlocks
)

type blocks [numBlocks][]float64

func (m *Model) coefficients() blocks {
	return blocks{m.ARCoeffs, m.SARCoeffs, m.MACoeffs, m.SMACoeffs}
}

func (b blocks) clone() blocks {
	var out blocks
	for i, c := range b {
		out[i] = append([]float64(nil), c...)
	}
	return out
}

func (b blocks) copyTo(dst blocks) {
	for i := range b {
		copy(dst[i], b[i])
	}
}

func (b blocks) zeros() blocks {
	var out blocks
	for i, c := range b {
		out[i] = make([]float64, len(c))
	}
	return out
}

// sse fills residuals from start and returns their sum of squares.
func (m *Model) sse(y, residuals []float64, start int) float64 {
	clear(residuals)
	total := 0.0
	for t := start; t < len(y); t++ {
		residuals[t] = y[t] - m.predictAt(y, residuals, t, len(y))
		total += residuals[t] * residuals[t]
	}
	return total
}

// gradient is the derivative of the sum of squares with respect to each
// coefficient, holding past residuals fixed.
func (m *Model) gradient(y, residuals []float64, start int) blocks {
	g := m.coefficients().zeros()
	period := m.Order.M
	for t := start; t < len(y); t++ {
		e := -2 * residuals[t]
		for i := range g[blockAR] {
			if k := t - i - 1; k >= 0 {
				g[blockAR][i] += e * (y[k] - m.Intercept)
			}
		}
		for i := range g[blockSAR] {
			if k := t - (i+1)*period; k >= 0 {
				g[blockSAR][i] += e * (y[k] - m.Intercept)
			}
		}
		for i := range g[blockMA] {
			if k := t - i - 1; k >= 0 {
				g[blockMA][i] += e * residuals[k]
			}
		}
		for i := range g[blockSMA] {
			if k := t - (i+1)*period; k >= 0 {
				g[blockSMA][i] += e * residuals[k]
			}
		}
	}
	return g
}

// optimizeCSS minimises the conditional sum of squares by gradient descent
// with momentum and a decaying learning rate, keeping the best coefficients
// seen.
func (m *Model) optimizeCSS(y []float64) error {
	n := len(y)

	// Skip the lags the recursion cannot see, unless that leaves too little.
	start := m.Order.maxLag()
	if start >= n-10 {
		start = 0
	}

	coeffs := m.coefficients()
	velocity := coeffs.zeros()
	best := coeffs.clone()
	bestSSE := math.Inf(1)
	stale := 0
	lr := fitLearningRate
	residuals := make([]float64, n)

	iter := 0
	for ; iter < fitMaxIter; iter++ {
		current := m.sse(y, residuals, start)
		if !finite(current) {
			break
		}

		if current < bestSSE {
			bestSSE = current
			coeffs.copyTo(best)
			stale = 0
		} else {
			stale++
		}
		if stale > fitPatience {
			break
		}

		grad := m.gradient(y, residuals, start)
		for b := range coeffs {
			for i := range coeffs[b] {
				velocity[b][i] = fitMomentum*velocity[b][i] + lr*grad[b][i]/float64(n)
				coeffs[b][i] = clamp(coeffs[b][i]-velocity[b][i], -coeffBound, coeffBound)
			}
		}
		lr *= fitDecay

		if iter > 0 && math.Abs(current-bestSSE) < fitTolerance {
			break
		}
	}
	m.Iterations = iter

	if math.IsInf(bestSSE, 1) {
		return fmt.Errorf("%w: sum of squares never finite", ErrNonFinite)
	}
	best.copyTo(coeffs)

	// Residuals over the whole differenced series for forecasting.
	m.residuals = make([]float64, n)
	for t := 0; t < n; t++ {
		m.residuals[t] = y[t] - m.predictAt(y, m.residuals, t, n)
	}

	sse, count := 0.0, n-start
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
	}
	params := m.Order.P + m.Order.Q + m.Order.SP + m.Order.SQ + 1
	if count > params {
		m.Variance = sse / float64(count-params)
	} else {
		m.Variance = sse / float64(count)
	}

	if !finite(m.Intercept) || !finite(m.Variance) {
		return fmt.Errorf("%w: intercept=%v variance=%v", ErrNonFinite, m.Intercept, m.Variance)
	}
	return nil
}

// Predict generates point forecasts for the specified number of steps ahead,
// on the scale of the original (undifferenced) series.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		extY[t] = m.predictAt(extY, extResiduals, t, n)
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])

	forecasts = m.integrate(forecasts)

	for h, f := range forecasts {
		if !finite(f) {
			return nil, fmt.Errorf("%w: forecast step %d", ErrNonFinite, h+1)
		}
	}

	return forecasts, nil
}

// integrate undoes differencing to return forecasts on original scale.
// Differencing in Fit() is: first non-seasonal (d times), then seasonal (sd times).
// Integration order: first undo seasonal, then undo non-seasonal.
func (m *Model) integrate(forecasts []float64) []float64 {
	d := m.Order.D
	sd := m.Order.SD
	period := m.Order.M
	original := m.data.Values

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	// levels[i] is the series after i non-seasonal differences
	levels := make([][]float64, d+1)
	levels[0] = original
	for i := 1; i <= d; i++ {
		prev := levels[i-1]
		if len(prev) <= 1 {
			levels = levels[:i]
			break
		}
		next := make([]float64, len(prev)-1)
		for j := 1; j < len(prev); j++ {
			next[j-1] = prev[j] - prev[j-1]
		}
		levels[i] = next
	}
	nonSeasonalDiff := levels[len(levels)-1]

	// Undo seasonal differencing: y_t = z_t + y_{t-m}
	if sd > 0 && period > 0 {
		nDiff := len(nonSeasonalDiff)
		for i := 0; i < sd; i++ {
			for j := 0; j < len(result); j++ {
				if j < period {
					idx := nDiff - period + j
					if idx >= 0 && idx < nDiff {
						result[j] += nonSeasonalDiff[idx]
					}
				} else {
					result[j] += result[j-period]
				}
			}
		}
	}

	// Undo non-seasonal differencing: cumulative sum from the last level value
	for i := len(levels) - 2; i >= 0; i-- {
		level := levels[i]
		lastVal := level[len(level)-1]
		for j := range result {
			if j == 0 {
				result[j] += lastVal
			} else {
				result[j] += result[j-1]
			}
		}
	}

	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
