// Package sarima implements Seasonal ARIMA (SARIMA) models for time series with seasonality.
//
// SARIMA models extend ARIMA to handle seasonal patterns. A SARIMA(p,d,q)(P,D,Q)[m] model includes:
//   - Non-seasonal components: AR(p), I(d), MA(q)
//   - Seasonal components: SAR(P), SI(D), SMA(Q) at seasonal period m
//
// Coefficients are estimated by conditional sum of squares using gradient
// descent with momentum, and clamped to [-0.99, 0.99].
//
// # Basic Usage
//
// Fit the monthly commodity index model and forecast two years ahead:
//
//	// SARIMA(1,1,1)(1,1,1)[12]
//	model := sarima.New(1, 1, 1, 1, 1, 1, 12)
//
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//
//	forecasts, _ := model.Predict(24)
//
// Forecasts are returned on the scale of the input series: seasonal
// differencing is undone first, then non-seasonal differencing.
//
// # Data Requirements
//
// Fit rejects series shorter than Order.MinObservations with
// ErrInsufficientData. For SARIMA(1,1,1)(1,1,1)[12] that is 24 months, two
// full seasons.
// NaN or Inf appearing during estimation or forecasting yields ErrNonFinite.
package sarima
