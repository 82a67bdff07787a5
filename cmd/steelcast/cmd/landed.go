package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sartorproj/steelcast/landed"
)

var (
	landedPrices map[string]string
	landedTons   float64
	landedFormat string
)

// landedCmd computes delivered cost and transport emissions per origin.
var landedCmd = &cobra.Command{
	Use:   "landed",
	Short: "Compute landed scrap cost and transport emissions by origin",
	Long: `Apply tariffs, origin taxes, freight and other costs to scrap base
prices and estimate the transport CO2 of delivering them to a US plant.

Supported origins: US, China, India.

Examples:
  steelcast landed --price US=600 --price China=450 --price India=470
  steelcast landed --price China=450 --tons 25000 --format json`,
	Args: cobra.NoArgs,
	RunE: runLanded,
}

func init() {
	landedCmd.Flags().StringToStringVar(&landedPrices, "price", nil, "base price per ton by origin, e.g. --price China=450")
	landedCmd.Flags().Float64Var(&landedTons, "tons", 10000, "tons of scrap delivered")
	landedCmd.Flags().StringVarP(&landedFormat, "format", "f", "text", "output format (text, json)")
	_ = landedCmd.MarkFlagRequired("price")
}

func runLanded(cmd *cobra.Command, args []string) error {
	if landedTons <= 0 {
		return fmt.Errorf("invalid --tons %v (must be > 0)", landedTons)
	}

	prices := make(map[string]decimal.Decimal, len(landedPrices))
	for origin, raw := range landedPrices {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid price for %s: %w", origin, err)
		}
		prices[origin] = p
	}

	res, err := landed.Calculate(prices, decimal.NewFromFloat(landedTons))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch landedFormat {
	case "json":
		return writeIndented(out, res)
	case "text":
		printLanded(out, res)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", landedFormat)
	}
}

func printLanded(w io.Writer, res *landed.Result) {
	origins := make([]string, 0, len(res.Results))
	for origin := range res.Results {
		origins = append(origins, origin)
	}
	sort.Strings(origins)

	fmt.Fprintf(w, "Landed cost for %s t\n\n", res.TotalTons.String())
	fmt.Fprintf(w, "%-8s %12s %16s %12s %16s\n", "ORIGIN", "$/t", "TOTAL $", "kg CO2/t", "TOTAL kg CO2")
	for _, origin := range origins {
		r := res.Results[origin]
		fmt.Fprintf(w, "%-8s %12s %16s %12s %16s\n",
			origin,
			r.LandedPerTon.StringFixed(2),
			r.TotalCost.StringFixed(2),
			r.KgPerTon.StringFixed(1),
			r.TotalKg.StringFixed(0))
	}
	for _, origin := range res.Skipped {
		fmt.Fprintf(w, "%-8s skipped: no shipping configuration\n", origin)
	}
}
