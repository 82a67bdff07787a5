// Package pipeline runs a full forecast-to-cost comparison.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/steelcast/bridge"
	"github.com/sartorproj/steelcast/cost"
	"github.com/sartorproj/steelcast/country"
	"github.com/sartorproj/steelcast/forecast"
	serrors "github.com/sartorproj/steelcast/internal/errors"
	"github.com/sartorproj/steelcast/internal/metrics"
	"github.com/sartorproj/steelcast/internal/source"
	"github.com/sartorproj/steelcast/timeseries"
)

// Input describes one comparison run.
type Input struct {
	TargetYear int
	Country    string
	CapacityMW decimal.Decimal
	CarbonTax  decimal.Decimal
	Base       cost.BaseAssumptions
	Alt        cost.AltAssumptions
	// FallbackPrice prices scrap when the forecast fails. Zero means the
	// base route scrap price.
	FallbackPrice decimal.Decimal
}

// DefaultInput returns the 2027, US, 100 MW, $50/t carbon tax run with the
// built-in assumptions.
func DefaultInput() Input {
	return Input{
		TargetYear: 2027,
		Country:    "US",
		CapacityMW: decimal.NewFromInt(100),
		CarbonTax:  decimal.NewFromInt(50),
		Base:       cost.DefaultBaseAssumptions(),
		Alt:        cost.DefaultAltAssumptions(),
	}
}

func (in Input) fallbackPrice() decimal.Decimal {
	if in.FallbackPrice.IsZero() {
		return in.Base.Scrap
	}
	return in.FallbackPrice
}

// Result is the outcome of a run. On failure only Success, Error, ErrorType
// and RunID are set.
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	RunID     string `json:"run_id"`

	*cost.Result

	Country            string           `json:"country,omitempty"`
	CountryFound       bool             `json:"country_found,omitempty"`
	TargetYear         int              `json:"target_year,omitempty"`
	LastObserved       string           `json:"last_observed,omitempty"`
	LastIndex          *decimal.Decimal `json:"last_index,omitempty"`
	ForecastMonths     int              `json:"forecast_months,omitempty"`
	AvgForecastIndex   *decimal.Decimal `json:"avg_forecast_index,omitempty"`
	PricePerIndexPoint *decimal.Decimal `json:"price_per_index_point,omitempty"`
	UsedFallback       bool             `json:"used_fallback,omitempty"`
	FallbackReason     string           `json:"fallback_reason,omitempty"`
}

// Runner wires the stages of a run. A Runner is safe for concurrent use
// when its Source, Forecaster and country table are.
type Runner struct {
	source     source.Source
	forecaster forecast.Forecaster
	countries  *country.Table
	logger     *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	newID      func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// New returns a Runner. A nil country table is allowed; every lookup then
// yields neutral defaults.
func New(src source.Source, fc forecast.Forecaster, countries *country.Table, opts ...Option) *Runner {
	r := &Runner{
		source:     src,
		forecaster: fc,
		countries:  countries,
		logger:     zap.NewNop(),
		tracer:     noop.NewTracerProvider().Tracer(""),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scrapQuote is the priced scrap for a target year, shared by every
// country of a run.
type scrapQuote struct {
	last         time.Time
	lastIndex    decimal.Decimal
	horizon      int
	quote        bridge.Quote
	price        decimal.Decimal
	usedFallback bool
	reason       string
}

// Run executes one comparison. It never returns a partially populated
// successful result.
func (r *Runner) Run(ctx context.Context, in Input) Result {
	runID := r.newID()
	ctx, span := r.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("country", in.Country),
		attribute.Int("target_year", in.TargetYear),
	))
	defer span.End()

	log := r.logger.With(zap.String("run_id", runID), zap.String("country", in.Country), zap.Int("target_year", in.TargetYear))
	log.Info("run started")

	if in.Country == "" {
		return r.fail(span, log, runID, serrors.New(serrors.TypeInput, "country is required"))
	}

	q, err := r.price(ctx, in, log)
	if err != nil {
		return r.fail(span, log, runID, err)
	}

	res, err := r.compose(ctx, in, q, log)
	if err != nil {
		return r.fail(span, log, runID, err)
	}
	res.RunID = runID

	r.finish(log, q)
	return res
}

// RunCountries runs the same input for each country in parallel. The series
// is loaded and forecast once. Results are returned in the order of
// countries.
func (r *Runner) RunCountries(ctx context.Context, in Input, countries []string) []Result {
	ctx, span := r.tracer.Start(ctx, "pipeline.RunCountries", trace.WithAttributes(
		attribute.StringSlice("countries", countries),
		attribute.Int("target_year", in.TargetYear),
	))
	defer span.End()

	results := make([]Result, len(countries))
	log := r.logger.With(zap.Strings("countries", countries), zap.Int("target_year", in.TargetYear))

	q, err := r.price(ctx, in, log)
	if err != nil {
		for i, c := range countries {
			runID := r.newID()
			results[i] = r.fail(span, log.With(zap.String("run_id", runID), zap.String("country", c)), runID, err)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range countries {
		g.Go(func() error {
			runID := r.newID()
			cin := in
			cin.Country = c
			clog := r.logger.With(zap.String("run_id", runID), zap.String("country", c), zap.Int("target_year", in.TargetYear))

			res, err := r.compose(gctx, cin, q, clog)
			if err != nil {
				results[i] = r.fail(span, clog, runID, err)
				return nil
			}
			res.RunID = runID
			r.finish(clog, q)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// price loads the series, forecasts it and bridges the target year into a
// scrap price, falling back when the model fails.
func (r *Runner) price(ctx context.Context, in Input, log *zap.Logger) (*scrapQuote, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	series, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	last, lastValue, _ := series.Last()
	horizon, err := forecast.Horizon(last, in.TargetYear)
	if err != nil {
		return nil, serrors.Input("target year is not after the last observation", err).
			WithContext("last_observed", last.Format("2006-01"))
	}

	q := &scrapQuote{
		last:      last,
		lastIndex: decimal.NewFromFloat(lastValue),
		horizon:   horizon,
	}

	cal, err := bridge.NewCalibrationPoint(q.lastIndex, in.Base.Scrap)
	if err != nil {
		return nil, serrors.Input("invalid calibration point", err)
	}

	res, err := r.forecast(ctx, series, horizon)
	if err == nil {
		q.quote, err = bridge.Convert(res, in.TargetYear, cal)
	}

	switch {
	case err == nil:
		q.price = q.quote.Price
	case errors.Is(err, forecast.ErrNotConverged), errors.Is(err, bridge.ErrNoForecastForYear):
		fitErr := serrors.ModelFit("forecast unavailable", err)
		q.price = in.fallbackPrice()
		q.usedFallback = true
		q.reason = fitErr.Error()
		q.quote = bridge.Quote{Year: in.TargetYear, PricePerIndexPoint: cal.PricePerIndexPoint()}
		log.Warn("forecast failed, using fallback price",
			zap.Error(err),
			zap.String("fallback_price", q.price.String()))
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return nil, serrors.Input("invalid forecast horizon", err)
	default:
		return nil, serrors.Internal("forecast failed", err)
	}

	return q, nil
}

func (r *Runner) load(ctx context.Context) (*timeseries.Series, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.load")
	defer span.End()

	raw, err := r.source.Load(ctx)
	if err != nil {
		if errors.Is(err, source.ErrSeriesNotFound) {
			return nil, serrors.MissingReference("index series unavailable", err)
		}
		if ctx.Err() != nil {
			return nil, serrors.Internal("run cancelled", err)
		}
		return nil, serrors.Input("malformed index series", err)
	}

	series, err := timeseries.AlignMonthly(raw)
	if err != nil {
		return nil, serrors.Input("malformed index series", err)
	}
	if err := timeseries.ValidatePositive(series); err != nil {
		return nil, serrors.Input("malformed index series", err)
	}
	span.SetAttributes(attribute.Int("observations", series.Len()))
	return series, nil
}

func (r *Runner) forecast(ctx context.Context, series *timeseries.Series, horizon int) (*forecast.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := r.tracer.Start(ctx, "pipeline.forecast", trace.WithAttributes(attribute.Int("horizon", horizon)))
	defer span.End()

	start := time.Now()
	res, err := r.forecaster.Forecast(ctx, series, horizon)
	r.metrics.ObserveFit(err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

// compose looks up the country and composes route costs around q.
func (r *Runner) compose(ctx context.Context, in Input, q *scrapQuote, log *zap.Logger) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, serrors.Internal("run cancelled", err)
	}
	if in.Country == "" {
		return Result{}, serrors.New(serrors.TypeInput, "country is required")
	}
	_, span := r.tracer.Start(ctx, "pipeline.compose")
	defer span.End()

	factors, found := r.countries.Lookup(in.Country)
	if !found {
		log.Warn("country not in factor table, using defaults")
	}

	cr, err := cost.Compose(cost.Input{
		ForecastedScrapPrice: q.price,
		Base:                 in.Base,
		Alt:                  in.Alt,
		Factors:              factors,
		CarbonTax:            in.CarbonTax,
		CapacityMW:           in.CapacityMW,
	})
	if err != nil {
		return Result{}, serrors.Input("invalid cost input", err)
	}

	res := Result{
		Success:            true,
		Result:             &cr,
		Country:            factors.Country,
		CountryFound:       found,
		TargetYear:         in.TargetYear,
		LastObserved:       q.last.Format("2006-01"),
		LastIndex:          ptr(q.lastIndex),
		ForecastMonths:     q.quote.Months,
		PricePerIndexPoint: ptr(q.quote.PricePerIndexPoint),
		UsedFallback:       q.usedFallback,
		FallbackReason:     q.reason,
	}
	if !q.usedFallback {
		res.AvgForecastIndex = ptr(q.quote.MeanIndex)
	}
	return res, nil
}

func (r *Runner) finish(log *zap.Logger, q *scrapQuote) {
	outcome := metrics.OutcomeSuccess
	if q.usedFallback {
		outcome = metrics.OutcomeFallback
	}
	r.metrics.ObserveRun(outcome)
	log.Info("run finished",
		zap.Bool("used_fallback", q.usedFallback),
		zap.Int("horizon", q.horizon),
		zap.String("scrap_price", q.price.String()))
}

func (r *Runner) fail(span trace.Span, log *zap.Logger, runID string, err error) Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.metrics.ObserveRun(metrics.OutcomeFailure)

	if serrors.IsType(err, serrors.TypeInternal) {
		log.Error("run failed", zap.Error(err))
	} else {
		log.Warn("run rejected", zap.Error(err))
	}
	return failed(runID, err)
}

func failed(runID string, err error) Result {
	return Result{
		Success:   false,
		Error:     err.Error(),
		ErrorType: string(serrors.TypeOf(err)),
		RunID:     runID,
	}
}

func validate(in Input) error {
	switch {
	case in.TargetYear <= 0:
		return serrors.Newf(serrors.TypeInput, "target year must be positive, got %d", in.TargetYear)
	case in.CapacityMW.IsNegative():
		return serrors.Newf(serrors.TypeInput, "capacity must not be negative, got %s", in.CapacityMW)
	case in.CarbonTax.IsNegative():
		return serrors.Newf(serrors.TypeInput, "carbon tax must not be negative, got %s", in.CarbonTax)
	case in.Base.Scrap.IsNegative() || in.FallbackPrice.IsNegative():
		return serrors.New(serrors.TypeInput, "scrap prices must not be negative")
	}
	return nil
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
