package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"go.uber.org/zap"

	"github.com/sartorproj/steelcast/sarima"
	"github.com/sartorproj/steelcast/timeseries"
)

// Store holds forecast values keyed by a digest of the fitted input.
type Store interface {
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, values []float64) error
}

// Cached wraps a Forecaster with a Store. Only successful forecasts are
// stored; store errors are logged and the inner forecaster is used.
type Cached struct {
	Inner  Forecaster
	Store  Store
	Order  sarima.Order
	Logger *zap.Logger

	// OnLookup, when set, is called with the outcome of every cache lookup.
	OnLookup func(hit bool)
}

// NewCached returns a caching decorator over inner. Keys carry the order of
// inner when it is a *SARIMA, and DefaultOrder otherwise.
func NewCached(inner Forecaster, store Store, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	order := DefaultOrder
	if s, ok := inner.(*SARIMA); ok && s != nil {
		order = s.Order
	}
	return &Cached{Inner: inner, Store: store, Order: order, Logger: logger}
}

// Forecast returns the stored forecast for an identical series and horizon,
// or computes and stores a new one.
func (c *Cached) Forecast(ctx context.Context, series *timeseries.Series, horizon int) (*Result, error) {
	if c.Store == nil || series == nil || series.Len() == 0 || horizon < 1 {
		return c.Inner.Forecast(ctx, series, horizon)
	}

	key := Key(c.Order, series, horizon)

	values, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		c.Logger.Warn("forecast cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok && len(values) == horizon {
		c.observe(true)
		return newResult(series, values), nil
	}
	c.observe(false)

	res, err := c.Inner.Forecast(ctx, series, horizon)
	if err != nil {
		return nil, err
	}

	if err := c.Store.Set(ctx, key, res.Series.Values); err != nil {
		c.Logger.Warn("forecast cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

func (c *Cached) observe(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}

// Key is a stable digest of the model order, the series and the horizon.
func Key(order sarima.Order, series *timeseries.Series, horizon int) string {
	h := sha256.New()
	h.Write([]byte(order.String()))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(horizon))
	h.Write(buf[:])

	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			binary.BigEndian.PutUint64(buf[:], uint64(series.Timestamps[i].Unix()))
			h.Write(buf[:])
		}
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}
