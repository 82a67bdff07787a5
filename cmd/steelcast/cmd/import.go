package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/steelcast/internal/logging"
	"github.com/sartorproj/steelcast/internal/source"
	"github.com/sartorproj/steelcast/timeseries"
)

var importPath string

// importCmd loads a CSV export into the Postgres series table.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV scrap index export into Postgres",
	Long: `Read a monthly CSV export, align it to calendar months and upsert it
into the observations table for the configured series id.

Examples:
  STEELCAST_DATA_POSTGRES_DSN=postgres://localhost/steelcast steelcast import --csv data/WPU1012.csv`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importPath, "csv", "", "CSV file to import (default from config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := appConfig.Data
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("data.postgres_dsn is not configured")
	}

	path := cfg.CSVPath
	if importPath != "" {
		path = importPath
	}

	ctx := cmd.Context()
	series, err := source.NewCSV(path, csvOptions(cfg)).Load(ctx)
	if err != nil {
		return err
	}
	series, err = timeseries.AlignMonthly(series)
	if err != nil {
		return fmt.Errorf("failed to align %s: %w", path, err)
	}

	pool, err := source.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	pg := source.NewPostgres(pool, cfg.SeriesID)
	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := pg.Save(ctx, series)
	if err != nil {
		return err
	}

	logging.Info("imported series",
		zap.String("series_id", cfg.SeriesID),
		zap.String("path", path),
		zap.Int64("rows", n))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d observations into %s\n", n, cfg.SeriesID)
	return nil
}
