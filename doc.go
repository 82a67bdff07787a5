// Package steelcast forecasts a commodity price index and turns the forecast
// into a per-ton steel production cost comparison.
//
// A run takes a monthly scrap price index, fits SARIMA(1,1,1)(1,1,1)[12],
// averages the forecast over a target year and converts that average into a
// price using a single calibration point. The price feeds a blast furnace
// versus electric arc furnace cost comparison scaled by country factors.
//
// # Packages
//
//   - timeseries: monthly series, CSV loading and calendar alignment
//   - stats: autocorrelation used to seed model coefficients
//   - sarima: Seasonal ARIMA estimation and forecasting
//   - forecast: fixed-order forecaster, horizon arithmetic and caching
//   - bridge: index to price conversion
//   - country: per-country cost factors
//   - cost: BF and EAF cost composition
//   - landed: landed cost and transport emissions across countries
//   - pipeline: end-to-end run with fallback pricing
//
// The steelcast command (cmd/steelcast) exposes runs on the command line and
// over HTTP.
package steelcast
