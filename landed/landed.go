// Package landed computes the US landed cost and transport emissions of
// steel sourced from a set of origin countries.
package landed

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInvalidTons is returned when the total tonnage is not positive.
var ErrInvalidTons = errors.New("total tons must be positive")

// DefaultTotalTons is used when a request does not set a tonnage.
var DefaultTotalTons = decimal.NewFromInt(10000)

// Emission factors in kg CO2 per ton-km.
var (
	TruckKgCO2PerTonKM = decimal.RequireFromString("0.062")
	ShipKgCO2PerTonKM  = decimal.RequireFromString("0.010")
)

// RailKgCO2PerTonKM is reference data only: no route has a rail leg, and
// both inland legs are priced as truck.
var RailKgCO2PerTonKM = decimal.RequireFromString("0.021")

// Config describes shipping steel from one origin into the US.
type Config struct {
	ImportTariff      decimal.Decimal `json:"us_import_tariff"`
	OriginTaxRate     decimal.Decimal `json:"origin_tax_rate"`
	InlandFreightOrig decimal.Decimal `json:"inland_freight_origin_per_ton"`
	OceanFreight      decimal.Decimal `json:"ocean_freight_per_ton"`
	InlandFreightUS   decimal.Decimal `json:"inland_freight_us_per_ton"`
	OtherCosts        decimal.Decimal `json:"other_costs_per_ton"`
	InlandOriginKM    decimal.Decimal `json:"inland_origin_km"`
	OceanDistanceKM   decimal.Decimal `json:"ocean_distance_km"`
	InlandUSKM        decimal.Decimal `json:"inland_us_km"`
}

// Countries lists the origins Calculate knows about, in output order.
var Countries = []string{"US", "China", "India"}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Configs holds the shipping configuration per origin country.
var Configs = map[string]Config{
	"US": {
		ImportTariff:      dec("0"),
		OriginTaxRate:     dec("0"),
		InlandFreightOrig: dec("40"),
		OceanFreight:      dec("0"),
		InlandFreightUS:   dec("40"),
		OtherCosts:        dec("20"),
		InlandOriginKM:    dec("1000"),
		OceanDistanceKM:   dec("0"),
		InlandUSKM:        dec("1000"),
	},
	"China": {
		ImportTariff:      dec("0.25"),
		OriginTaxRate:     dec("0.02"),
		InlandFreightOrig: dec("30"),
		OceanFreight:      dec("70"),
		InlandFreightUS:   dec("50"),
		OtherCosts:        dec("25"),
		InlandOriginKM:    dec("300"),
		OceanDistanceKM:   dec("10000"),
		InlandUSKM:        dec("1500"),
	},
	"India": {
		ImportTariff:      dec("0.10"),
		OriginTaxRate:     dec("0.02"),
		InlandFreightOrig: dec("35"),
		OceanFreight:      dec("80"),
		InlandFreightUS:   dec("50"),
		OtherCosts:        dec("25"),
		InlandOriginKM:    dec("400"),
		OceanDistanceKM:   dec("13000"),
		InlandUSKM:        dec("1500"),
	},
}

// Breakdown is the landed cost of one ton.
type Breakdown struct {
	BasePrice     decimal.Decimal `json:"base_price"`
	ImportTariff  decimal.Decimal `json:"import_tariff"`
	OriginTax     decimal.Decimal `json:"origin_tax"`
	TransportCost decimal.Decimal `json:"transport_cost"`
	OtherCosts    decimal.Decimal `json:"other_costs"`
	LandedPerTon  decimal.Decimal `json:"landed_cost_per_ton"`
}

// Emissions is the transport footprint of one ton in kg CO2.
type Emissions struct {
	InlandOrigin decimal.Decimal `json:"inland_origin_kg"`
	Ocean        decimal.Decimal `json:"ocean_kg"`
	InlandUS     decimal.Decimal `json:"inland_us_kg"`
	TotalPerTon  decimal.Decimal `json:"total_kg_per_ton"`
}

// CountryResult is the landed cost and footprint for one origin.
type CountryResult struct {
	Cost         Breakdown       `json:"cost_breakdown"`
	Emissions    Emissions       `json:"emis_breakdown"`
	LandedPerTon decimal.Decimal `json:"landed_per_ton"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	KgPerTon     decimal.Decimal `json:"kg_per_ton"`
	TotalKg      decimal.Decimal `json:"total_kg"`
}

// Result covers every requested origin.
type Result struct {
	TotalTons decimal.Decimal          `json:"total_tons"`
	Results   map[string]CountryResult `json:"results"`
	// Skipped lists requested origins with no shipping configuration.
	Skipped []string `json:"skipped,omitempty"`
}

// CostPerTon applies tariff, origin tax, freight and other costs to base.
// Tariff and tax are levied on the base price.
func CostPerTon(base decimal.Decimal, cfg Config) Breakdown {
	tariff := base.Mul(cfg.ImportTariff)
	tax := base.Mul(cfg.OriginTaxRate)
	transport := cfg.InlandFreightOrig.Add(cfg.OceanFreight).Add(cfg.InlandFreightUS)

	return Breakdown{
		BasePrice:     base,
		ImportTariff:  tariff,
		OriginTax:     tax,
		TransportCost: transport,
		OtherCosts:    cfg.OtherCosts,
		LandedPerTon:  base.Add(tariff).Add(tax).Add(transport).Add(cfg.OtherCosts),
	}
}

// TransportEmissions estimates kg CO2 per ton: trucks inland at both ends,
// ship across the ocean.
func TransportEmissions(cfg Config) Emissions {
	inland := cfg.InlandOriginKM.Mul(TruckKgCO2PerTonKM)
	ocean := cfg.OceanDistanceKM.Mul(ShipKgCO2PerTonKM)
	us := cfg.InlandUSKM.Mul(TruckKgCO2PerTonKM)

	return Emissions{
		InlandOrigin: inland,
		Ocean:        ocean,
		InlandUS:     us,
		TotalPerTon:  inland.Add(ocean).Add(us),
	}
}

// Calculate prices totalTons of steel from each origin in basePrices.
// Origins without a configuration are reported in Skipped.
func Calculate(basePrices map[string]decimal.Decimal, totalTons decimal.Decimal) (*Result, error) {
	if !totalTons.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTons, totalTons)
	}

	res := &Result{
		TotalTons: totalTons,
		Results:   make(map[string]CountryResult, len(basePrices)),
	}

	for _, c := range Countries {
		base, ok := basePrices[c]
		if !ok {
			continue
		}
		if base.IsNegative() {
			return nil, fmt.Errorf("base price for %s must not be negative: got %s", c, base)
		}

		cfg := Configs[c]
		breakdown := CostPerTon(base, cfg)
		emissions := TransportEmissions(cfg)

		res.Results[c] = CountryResult{
			Cost:         breakdown,
			Emissions:    emissions,
			LandedPerTon: breakdown.LandedPerTon,
			TotalCost:    breakdown.LandedPerTon.Mul(totalTons),
			KgPerTon:     emissions.TotalPerTon,
			TotalKg:      emissions.TotalPerTon.Mul(totalTons),
		}
	}

	for c := range basePrices {
		if _, ok := Configs[c]; !ok {
			res.Skipped = append(res.Skipped, c)
		}
	}
	sort.Strings(res.Skipped)

	return res, nil
}
