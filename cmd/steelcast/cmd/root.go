// Package cmd provides the CLI commands for steelcast.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sartorproj/steelcast/internal/config"
	"github.com/sartorproj/steelcast/internal/logging"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "steelcast",
	Short: "Compare BF-BOF and Scrap-EAF steelmaking costs",
	Long: `steelcast forecasts the WPU1012 ferrous scrap index, converts it to a
scrap price and compares blast furnace and electric arc furnace
production costs per ton, with landed import costs for scrap origins.

Examples:
  steelcast forecast --year 2027 --country US
  steelcast forecast --year 2028 --countries US,China,India --format json
  steelcast landed --price US=600 --price China=450 --tons 10000
  steelcast serve --config configs/steelcast.yaml`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/steelcast.yaml or ./steelcast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(landedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := logging.Initialize(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	appConfig = cfg
}

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "steelcast version %s\n", Version)
	},
}
