// Package api serves forecast and landed-cost calculations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sartorproj/steelcast/cost"
	"github.com/sartorproj/steelcast/pipeline"
)

// Runner executes comparison runs.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) pipeline.Result
	RunCountries(ctx context.Context, in pipeline.Input, countries []string) []pipeline.Result
}

// Defaults fill request fields the caller leaves out.
type Defaults struct {
	CapacityMW decimal.Decimal
	CarbonTax  decimal.Decimal
	Base       cost.BaseAssumptions
	Alt        cost.AltAssumptions
}

// DefaultDefaults returns 100 MW, $50/t and the built-in assumptions.
func DefaultDefaults() Defaults {
	return Defaults{
		CapacityMW: decimal.NewFromInt(100),
		CarbonTax:  decimal.NewFromInt(50),
		Base:       cost.DefaultBaseAssumptions(),
		Alt:        cost.DefaultAltAssumptions(),
	}
}

// Options configures a Server.
type Options struct {
	Defaults       Defaults
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
	// ServiceName enables otelgin tracing middleware when set.
	ServiceName string
}

// Server is the steelcast HTTP API.
type Server struct {
	runner   Runner
	defaults Defaults
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
	engine   *gin.Engine
}

// NewServer builds the router.
func NewServer(runner Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		runner:   runner,
		defaults: opts.Defaults,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst),
		timeout:  opts.RequestTimeout,
		logger:   opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}

	router.GET("/health", s.health)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/forecast-price", s.rateLimit(), s.forecastPrice)
		api.POST("/compare-countries", s.rateLimit(), s.compareCountries)
		api.POST("/calculate-cost", s.calculateCost)
	}

	s.engine = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
