// Package cost composes per-ton production costs for the BF-BOF and
// Scrap-EAF steel routes.
package cost

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/steelcast/country"
)

// ErrInvalidInput is returned for negative capacity or carbon tax.
var ErrInvalidInput = errors.New("invalid cost input")

// BaseAssumptions are the priced inputs of the BF-BOF route in $/t.
type BaseAssumptions struct {
	IronOre    decimal.Decimal `json:"iron_ore" mapstructure:"iron_ore"`
	CokingCoal decimal.Decimal `json:"coking_coal" mapstructure:"coking_coal"`
	Fluxes     decimal.Decimal `json:"bf_fluxes" mapstructure:"bf_fluxes"`
	Scrap      decimal.Decimal `json:"scrap" mapstructure:"scrap"`
	OtherCosts decimal.Decimal `json:"other_costs_bf" mapstructure:"other_costs_bf"`
}

// AltAssumptions are the priced inputs of the Scrap-EAF route.
// Electricity is $/kWh and Electrode is $/kg.
type AltAssumptions struct {
	Electricity decimal.Decimal `json:"electricity" mapstructure:"electricity"`
	Electrode   decimal.Decimal `json:"electrode" mapstructure:"electrode"`
	Fluxes      decimal.Decimal `json:"eaf_fluxes" mapstructure:"eaf_fluxes"`
	// OtherCosts is carried for reporting; the route total uses the
	// country's alternative labor cost instead.
	OtherCosts decimal.Decimal `json:"other_costs_eaf" mapstructure:"other_costs_eaf"`
}

// DefaultBaseAssumptions returns iron ore 130, coking coal 280, fluxes 50,
// scrap 375 and other costs 50.
func DefaultBaseAssumptions() BaseAssumptions {
	return BaseAssumptions{
		IronOre:    decimal.NewFromInt(130),
		CokingCoal: decimal.NewFromInt(280),
		Fluxes:     decimal.NewFromInt(50),
		Scrap:      decimal.NewFromInt(375),
		OtherCosts: decimal.NewFromInt(50),
	}
}

// DefaultAltAssumptions returns electricity 0.08 $/kWh, electrode 2.5 $/kg,
// fluxes 60 and other costs 40.
func DefaultAltAssumptions() AltAssumptions {
	return AltAssumptions{
		Electricity: decimal.RequireFromString("0.08"),
		Electrode:   decimal.RequireFromString("2.5"),
		Fluxes:      decimal.NewFromInt(60),
		OtherCosts:  decimal.NewFromInt(40),
	}
}

// Input is everything Compose needs for one comparison.
type Input struct {
	// ForecastedScrapPrice feeds the alternative route's scrap term.
	ForecastedScrapPrice decimal.Decimal
	Base                 BaseAssumptions
	Alt                  AltAssumptions
	Factors              country.Factors
	CarbonTax            decimal.Decimal
	CapacityMW           decimal.Decimal
}

// Result is a per-ton comparison of the two routes.
type Result struct {
	TotalTons            decimal.Decimal `json:"total_steel_tons"`
	BaseCostPerTon       decimal.Decimal `json:"bf_cost_per_ton"`
	AltCostPerTon        decimal.Decimal `json:"eaf_cost_per_ton"`
	ForecastedScrapPrice decimal.Decimal `json:"forecasted_scrap_price"`
	SpreadPerTon         decimal.Decimal `json:"cost_spread_per_ton"`
	TotalSavings         decimal.Decimal `json:"total_project_cost_savings"`
	EmissionsPctSavings  decimal.Decimal `json:"emissions_percent_savings"`
	CostPctSavings       decimal.Decimal `json:"cost_percent_savings"`
	BaseEmissions        decimal.Decimal `json:"bf_emissions_per_ton"`
	AltEmissions         decimal.Decimal `json:"eaf_emissions_per_ton"`

	BaseMaterials decimal.Decimal `json:"bf_materials_per_ton"`
	BaseCarbon    decimal.Decimal `json:"bf_carbon_per_ton"`
	AltMaterials  decimal.Decimal `json:"eaf_materials_per_ton"`
	AltCarbon     decimal.Decimal `json:"eaf_carbon_per_ton"`
}

// TotalTons converts capacity in MW to tons of steel.
func TotalTons(capacityMW decimal.Decimal) decimal.Decimal {
	return capacityMW.Mul(TonsPerMW)
}

// BaseMaterials is the BF-BOF material cost per ton.
func BaseMaterials(a BaseAssumptions, f country.Factors) decimal.Decimal {
	return sum(
		BaseIronOreCoef.Mul(a.IronOre).Mul(f.IronOre),
		BaseCoalCoef.Mul(a.CokingCoal).Mul(f.Coal),
		BaseScrapCoef.Mul(a.Scrap).Mul(f.Scrap),
		BaseFluxesCoef.Mul(a.Fluxes).Mul(f.Fluxes),
	)
}

// AltMaterials is the Scrap-EAF material and energy cost per ton.
func AltMaterials(scrapPrice decimal.Decimal, a AltAssumptions, f country.Factors) decimal.Decimal {
	return sum(
		AltScrapCoef.Mul(scrapPrice).Mul(f.Scrap),
		AltElectricityKWh.Mul(a.Electricity).Mul(f.Electricity),
		AltElectrodeKg.Mul(a.Electrode),
		AltFluxesCoef.Mul(a.Fluxes).Mul(f.Fluxes),
	)
}

// Compose computes both route totals and the comparison metrics.
// The labor_bf factor and the country carbon tax multiplier do not enter
// the totals.
func Compose(in Input) (Result, error) {
	if in.CapacityMW.IsNegative() {
		return Result{}, fmt.Errorf("%w: capacity %s MW is negative", ErrInvalidInput, in.CapacityMW)
	}
	if in.CarbonTax.IsNegative() {
		return Result{}, fmt.Errorf("%w: carbon tax %s is negative", ErrInvalidInput, in.CarbonTax)
	}

	baseMaterials := BaseMaterials(in.Base, in.Factors)
	baseCarbon := BaseEmissions.Mul(in.CarbonTax)
	base := baseMaterials.Add(in.Base.OtherCosts).Add(baseCarbon)

	altMaterials := AltMaterials(in.ForecastedScrapPrice, in.Alt, in.Factors)
	altCarbon := AltEmissions.Mul(in.CarbonTax)
	alt := altMaterials.Add(in.Factors.LaborAlt).Add(altCarbon)

	tons := TotalTons(in.CapacityMW)
	spread := base.Sub(alt)

	costPct := decimal.Zero
	if base.IsPositive() {
		costPct = spread.Div(base)
	}

	return Result{
		TotalTons:            tons,
		BaseCostPerTon:       base,
		AltCostPerTon:        alt,
		ForecastedScrapPrice: in.ForecastedScrapPrice,
		SpreadPerTon:         spread,
		TotalSavings:         spread.Mul(tons),
		EmissionsPctSavings:  BaseEmissions.Sub(AltEmissions).Div(BaseEmissions),
		CostPctSavings:       costPct,
		BaseEmissions:        BaseEmissions,
		AltEmissions:         AltEmissions,
		BaseMaterials:        baseMaterials,
		BaseCarbon:           baseCarbon,
		AltMaterials:         altMaterials,
		AltCarbon:            altCarbon,
	}, nil
}

func sum(terms ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, t := range terms {
		total = total.Add(t)
	}
	return total
}

// With returns a copy of a with the prices named in m replaced. Keys follow
// the JSON field names; unknown keys are ignored.
func (a BaseAssumptions) With(m map[string]float64) BaseAssumptions {
	override(m, "iron_ore", &a.IronOre)
	override(m, "coking_coal", &a.CokingCoal)
	override(m, "bf_fluxes", &a.Fluxes)
	override(m, "scrap", &a.Scrap)
	override(m, "other_costs_bf", &a.OtherCosts)
	return a
}

// With returns a copy of a with the prices named in m replaced. Keys follow
// the JSON field names; unknown keys are ignored.
func (a AltAssumptions) With(m map[string]float64) AltAssumptions {
	override(m, "electricity", &a.Electricity)
	override(m, "electrode", &a.Electrode)
	override(m, "eaf_fluxes", &a.Fluxes)
	override(m, "other_costs_eaf", &a.OtherCosts)
	return a
}

func override(m map[string]float64, key string, dst *decimal.Decimal) {
	if v, ok := m[key]; ok {
		*dst = decimal.NewFromFloat(v)
	}
}
