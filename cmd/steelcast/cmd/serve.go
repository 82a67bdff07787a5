package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/steelcast/internal/api"
	"github.com/sartorproj/steelcast/internal/logging"
)

var serveAddr string

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forecast and landed-cost HTTP API",
	Long: `Start the HTTP API:

  POST /api/forecast-price     one comparison run
  POST /api/compare-countries  one run per country, sharing the forecast
  POST /api/calculate-cost     landed cost by origin
  GET  /health
  GET  /metrics                when metrics are enabled`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Sync()

	cfg := appConfig
	logger := logging.Logger

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	opts := api.Options{
		Defaults: api.Defaults{
			CapacityMW: decimal.NewFromFloat(cfg.Defaults.CapacityMW),
			CarbonTax:  decimal.NewFromFloat(cfg.Defaults.CarbonTax),
			Base:       cfg.Defaults.BaseAssumptions(),
			Alt:        cfg.Defaults.AltAssumptions(),
		},
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	}
	if a.registry != nil {
		opts.Gatherer = prometheus.Gatherer(a.registry)
	}
	if cfg.Telemetry.Enabled {
		opts.ServiceName = cfg.Telemetry.ServiceName
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	return api.NewServer(a.runner, opts).ListenAndServe(ctx, addr)
}
