// Package main is the entry point for the steelcast CLI.
package main

import (
	"os"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/steelcast/cmd/steelcast/cmd"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
