package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sartorproj/steelcast/internal/errors"
	"github.com/sartorproj/steelcast/pipeline"
)

type fakeRunner struct {
	mu        sync.Mutex
	inputs    []pipeline.Input
	countries []string
	result    pipeline.Result
}

func (f *fakeRunner) Run(_ context.Context, in pipeline.Input) pipeline.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return f.result
}

func (f *fakeRunner) RunCountries(_ context.Context, in pipeline.Input, countries []string) []pipeline.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	f.countries = countries
	out := make([]pipeline.Result, len(countries))
	for i, c := range countries {
		out[i] = f.result
		out[i].Country = c
	}
	return out
}

func (f *fakeRunner) last() pipeline.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(r Runner) *Server {
	return NewServer(r, Options{Defaults: DefaultDefaults(), RateLimitRPS: 1000, RateLimitBurst: 1000})
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestForecastPriceAppliesDefaults(t *testing.T) {
	fr := &fakeRunner{result: pipeline.Result{Success: true, RunID: "r1"}}
	s := newTestServer(fr)

	w := post(t, s.Handler(), "/api/forecast-price", map[string]any{
		"futureYear": 2027,
		"country":    " China ",
		"bfAssumptions": map[string]float64{
			"iron_ore": 120,
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	in := fr.last()
	assert.Equal(t, 2027, in.TargetYear)
	assert.Equal(t, "China", in.Country)
	assert.True(t, in.CapacityMW.Equal(decimal.NewFromInt(100)))
	assert.True(t, in.CarbonTax.Equal(decimal.NewFromInt(50)))
	assert.True(t, in.Base.IronOre.Equal(decimal.NewFromInt(120)))
	assert.True(t, in.Base.CokingCoal.Equal(DefaultDefaults().Base.CokingCoal))
	assert.True(t, in.Alt.Electricity.Equal(DefaultDefaults().Alt.Electricity))
}

func TestForecastPriceOverrides(t *testing.T) {
	fr := &fakeRunner{result: pipeline.Result{Success: true}}
	s := newTestServer(fr)

	w := post(t, s.Handler(), "/api/forecast-price", map[string]any{
		"futureYear": 2028,
		"country":    "US",
		"mwCapacity": 250,
		"carbonTax":  0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	in := fr.last()
	assert.True(t, in.CapacityMW.Equal(decimal.NewFromInt(250)))
	assert.True(t, in.CarbonTax.IsZero(), "explicit zero carbon tax must not be replaced by the default")
}

func TestForecastPriceMissingFields(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	for _, body := range []any{
		map[string]any{"country": "US"},
		map[string]any{"futureYear": 2027},
		map[string]any{"futureYear": 2027, "country": "  "},
	} {
		w := post(t, s.Handler(), "/api/forecast-price", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing required fields")
	}
}

func TestForecastPriceMalformedBody(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	w := post(t, s.Handler(), "/api/forecast-price", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForecastPriceErrorStatus(t *testing.T) {
	tests := []struct {
		errType serrors.Type
		want    int
	}{
		{serrors.TypeInput, http.StatusUnprocessableEntity},
		{serrors.TypeMissingReference, http.StatusNotFound},
		{serrors.TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			fr := &fakeRunner{result: pipeline.Result{Error: "boom", ErrorType: string(tt.errType), RunID: "x"}}
			s := newTestServer(fr)

			w := post(t, s.Handler(), "/api/forecast-price", map[string]any{"futureYear": 2027, "country": "US"})
			assert.Equal(t, tt.want, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "boom", body["error"])
		})
	}
}

func TestCompareCountries(t *testing.T) {
	fr := &fakeRunner{result: pipeline.Result{Success: true}}
	s := newTestServer(fr)

	w := post(t, s.Handler(), "/api/compare-countries", map[string]any{
		"futureYear": 2027,
		"countries":  []string{"US", "China", "India"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"US", "China", "India"}, fr.countries)

	var body struct {
		Success bool `json:"success"`
		Results []struct {
			Country string `json:"country"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Results, 3)
	assert.Equal(t, "India", body.Results[2].Country)
}

func TestCompareCountriesSharedFailure(t *testing.T) {
	fr := &fakeRunner{result: pipeline.Result{Error: "no data", ErrorType: string(serrors.TypeMissingReference)}}
	s := newTestServer(fr)

	w := post(t, s.Handler(), "/api/compare-countries", map[string]any{
		"futureYear": 2027,
		"countries":  []string{"US", "China"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompareCountriesRequiresList(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	w := post(t, s.Handler(), "/api/compare-countries", map[string]any{"futureYear": 2027})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculateCost(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	w := post(t, s.Handler(), "/api/calculate-cost", map[string]any{
		"basePrices": map[string]float64{"China": 450, "US": 600, "Brazil": 500},
		"totalTons":  10000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CalculateCostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)

	china := resp.Results["China"]
	assert.True(t, china.LandedPerTon.Equal(decimal.RequireFromString("746.5")), china.LandedPerTon.String())
	assert.True(t, china.KgPerTon.Equal(decimal.RequireFromString("211.6")), china.KgPerTon.String())
	assert.True(t, resp.Results["US"].LandedPerTon.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, []string{"Brazil"}, resp.Skipped)
}

func TestCalculateCostValidation(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing prices", map[string]any{"totalTons": 100}, "Missing or invalid basePrices object"},
		{"zero tons", map[string]any{"basePrices": map[string]float64{"US": 1}}, "Invalid totalTons"},
		{"negative tons", map[string]any{"basePrices": map[string]float64{"US": 1}, "totalTons": -5}, "Invalid totalTons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, s.Handler(), "/api/calculate-cost", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}

	w := post(t, s.Handler(), "/api/calculate-cost", map[string]any{
		"basePrices": map[string]float64{"US": -1},
		"totalTons":  10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := NewServer(&fakeRunner{result: pipeline.Result{Success: true}}, Options{
		Defaults:       DefaultDefaults(),
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})
	body := map[string]any{"futureYear": 2027, "country": "US"}

	assert.Equal(t, http.StatusOK, post(t, s.Handler(), "/api/forecast-price", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, s.Handler(), "/api/forecast-price", body).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "steelcast_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := NewServer(&fakeRunner{}, Options{Defaults: DefaultDefaults(), Gatherer: reg})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "steelcast_test_total 1")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
