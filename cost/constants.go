package cost

import "github.com/shopspring/decimal"

// Base route (BF-BOF) consumption per ton of steel.
var (
	BaseIronOreCoef = decimal.RequireFromString("1.37")
	BaseCoalCoef    = decimal.RequireFromString("0.78")
	BaseScrapCoef   = decimal.RequireFromString("0.125")
	BaseFluxesCoef  = decimal.RequireFromString("0.27")

	// BaseEmissions is tCO2 per ton of steel.
	BaseEmissions = decimal.RequireFromString("2.1")
)

// Alternative route (Scrap-EAF) consumption per ton of steel.
var (
	AltScrapCoef      = decimal.RequireFromString("1.1")
	AltElectricityKWh = decimal.NewFromInt(450)
	AltElectrodeKg    = decimal.RequireFromString("2.0")
	AltFluxesCoef     = decimal.RequireFromString("0.05")

	// AltEmissions is tCO2 per ton of steel.
	AltEmissions = decimal.RequireFromString("0.6")
)

// TonsPerMW is annual steel output per MW of capacity.
var TonsPerMW = decimal.NewFromInt(40)
