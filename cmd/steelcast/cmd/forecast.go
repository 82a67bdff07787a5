package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sartorproj/steelcast/internal/logging"
	"github.com/sartorproj/steelcast/pipeline"
)

var (
	forecastYear      int
	forecastCountry   string
	forecastCountries []string
	forecastCapacity  float64
	forecastCarbonTax float64
	forecastFallback  float64
	forecastFormat    string
)

// Assumption flags map one-to-one onto the override keys of
// cost.BaseAssumptions.With and cost.AltAssumptions.With.
var (
	baseAssumptionFlags = []string{"iron_ore", "coking_coal", "bf_fluxes", "scrap", "other_costs_bf"}
	altAssumptionFlags  = []string{"electricity", "electrode", "eaf_fluxes", "other_costs_eaf"}
)

// forecastCmd runs one comparison, or one per country.
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast the scrap price and compare route costs",
	Long: `Fit the scrap index, price scrap for the target year and compare the
BF-BOF and Scrap-EAF cost per ton for a country.

Unset flags take their values from the config file.

Examples:
  steelcast forecast --year 2027 --country US
  steelcast forecast --year 2027 --country China --carbon-tax 100 --scrap 400
  steelcast forecast --countries US,China,India --format json`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

func init() {
	f := forecastCmd.Flags()
	f.IntVar(&forecastYear, "year", 0, "target year (default from config)")
	f.StringVar(&forecastCountry, "country", "", "country id (default from config)")
	f.StringSliceVar(&forecastCountries, "countries", nil, "compare several countries, comma separated")
	f.Float64Var(&forecastCapacity, "capacity", 0, "plant capacity in MW")
	f.Float64Var(&forecastCarbonTax, "carbon-tax", 0, "carbon tax in $/t CO2")
	f.Float64Var(&forecastFallback, "fallback-price", 0, "scrap price used when the forecast fails (default: base scrap price)")
	f.StringVarP(&forecastFormat, "format", "f", "text", "output format (text, json)")

	for _, key := range baseAssumptionFlags {
		f.Float64(flagName(key), 0, "BF-BOF "+strings.ReplaceAll(key, "_", " "))
	}
	for _, key := range altAssumptionFlags {
		f.Float64(flagName(key), 0, "Scrap-EAF "+strings.ReplaceAll(key, "_", " "))
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// overrides collects the assumption flags the user actually set.
func overrides(flags *pflag.FlagSet, keys []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, key := range keys {
		name := flagName(key)
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func forecastInput(cmd *cobra.Command) (pipeline.Input, error) {
	d := appConfig.Defaults
	flags := cmd.Flags()

	in := pipeline.Input{
		TargetYear: d.Year,
		Country:    d.Country,
		CapacityMW: decimal.NewFromFloat(d.CapacityMW),
		CarbonTax:  decimal.NewFromFloat(d.CarbonTax),
	}
	if flags.Changed("year") {
		in.TargetYear = forecastYear
	}
	if flags.Changed("country") {
		in.Country = forecastCountry
	}
	if flags.Changed("capacity") {
		in.CapacityMW = decimal.NewFromFloat(forecastCapacity)
	}
	if flags.Changed("carbon-tax") {
		in.CarbonTax = decimal.NewFromFloat(forecastCarbonTax)
	}
	if flags.Changed("fallback-price") {
		in.FallbackPrice = decimal.NewFromFloat(forecastFallback)
	}

	base, err := overrides(flags, baseAssumptionFlags)
	if err != nil {
		return in, err
	}
	alt, err := overrides(flags, altAssumptionFlags)
	if err != nil {
		return in, err
	}
	in.Base = d.BaseAssumptions().With(base)
	in.Alt = d.AltAssumptions().With(alt)
	return in, nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	if forecastFormat != "text" && forecastFormat != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", forecastFormat)
	}

	in, err := forecastInput(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	a, err := buildApp(ctx, appConfig, logging.Logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	var results []pipeline.Result
	if len(forecastCountries) > 0 {
		results = a.runner.RunCountries(ctx, in, forecastCountries)
	} else {
		results = []pipeline.Result{a.runner.Run(ctx, in)}
	}

	out := cmd.OutOrStdout()
	if forecastFormat == "json" {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printResult(out, res)
		}
	}

	for _, res := range results {
		if !res.Success {
			return fmt.Errorf("run %s failed: %s", res.RunID, res.Error)
		}
	}
	return nil
}

func writeJSON(w io.Writer, results []pipeline.Result) error {
	if len(results) == 1 {
		return writeIndented(w, results[0])
	}
	return writeIndented(w, results)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res pipeline.Result) {
	if !res.Success {
		fmt.Fprintf(w, "Run %s failed [%s]: %s\n", res.RunID, res.ErrorType, res.Error)
		return
	}

	fmt.Fprintf(w, "Run %s: %s, %d\n", res.RunID, res.Country, res.TargetYear)
	if !res.CountryFound {
		fmt.Fprintln(w, "  (country not in factor table, default factors used)")
	}
	if res.UsedFallback {
		fmt.Fprintf(w, "  Scrap price:        $%s/t (fallback: %s)\n", res.ForecastedScrapPrice.StringFixed(2), res.FallbackReason)
	} else {
		fmt.Fprintf(w, "  Scrap price:        $%s/t (avg index %s over %d months, last %s = %s)\n",
			res.ForecastedScrapPrice.StringFixed(2),
			res.AvgForecastIndex.StringFixed(2),
			res.ForecastMonths,
			res.LastObserved,
			res.LastIndex.StringFixed(2))
	}
	fmt.Fprintf(w, "  Steel output:       %s t\n", res.TotalTons.String())
	fmt.Fprintf(w, "  BF-BOF cost:        $%s/t\n", res.BaseCostPerTon.StringFixed(2))
	fmt.Fprintf(w, "  Scrap-EAF cost:     $%s/t\n", res.AltCostPerTon.StringFixed(2))
	fmt.Fprintf(w, "  Spread:             $%s/t\n", res.SpreadPerTon.StringFixed(2))
	fmt.Fprintf(w, "  Project savings:    $%s\n", res.TotalSavings.StringFixed(2))
	fmt.Fprintf(w, "  Emissions savings:  %s%%\n", percent(res.EmissionsPctSavings))
	fmt.Fprintf(w, "  Cost savings:       %s%%\n", percent(res.CostPctSavings))
}

// percent renders a fraction as a percentage with one decimal.
func percent(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(1)
}
