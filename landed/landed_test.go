package landed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestCostPerTon(t *testing.T) {
	b := CostPerTon(d("450"), Configs["China"])

	assertDecimal(t, "450", b.BasePrice, "base")
	assertDecimal(t, "112.5", b.ImportTariff, "tariff")
	assertDecimal(t, "9", b.OriginTax, "origin tax")
	assertDecimal(t, "150", b.TransportCost, "transport")
	assertDecimal(t, "25", b.OtherCosts, "other")
	assertDecimal(t, "746.5", b.LandedPerTon, "landed")
}

func TestCostPerTonDomestic(t *testing.T) {
	b := CostPerTon(d("600"), Configs["US"])

	assert.True(t, b.ImportTariff.IsZero())
	assert.True(t, b.OriginTax.IsZero())
	assertDecimal(t, "700", b.LandedPerTon, "landed")
}

func TestTransportEmissions(t *testing.T) {
	tests := []struct {
		country string
		total   string
		ocean   string
	}{
		{"US", "124", "0"},
		{"China", "211.6", "100"},
		{"India", "247.8", "130"},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			e := TransportEmissions(Configs[tt.country])
			assertDecimal(t, tt.total, e.TotalPerTon, "total")
			assertDecimal(t, tt.ocean, e.Ocean, "ocean")
			assert.True(t, e.InlandOrigin.Add(e.Ocean).Add(e.InlandUS).Equal(e.TotalPerTon))
		})
	}
}

func TestTransportEmissionsInlandLegsUseTruck(t *testing.T) {
	saved := RailKgCO2PerTonKM
	RailKgCO2PerTonKM = d("99")
	defer func() { RailKgCO2PerTonKM = saved }()

	cfg := Configs["China"]
	e := TransportEmissions(cfg)
	assertDecimal(t, cfg.InlandOriginKM.Mul(TruckKgCO2PerTonKM).String(), e.InlandOrigin, "inland origin")
	assertDecimal(t, cfg.InlandUSKM.Mul(TruckKgCO2PerTonKM).String(), e.InlandUS, "inland US")
	assertDecimal(t, "211.6", e.TotalPerTon, "total")
}

func TestCalculate(t *testing.T) {
	prices := map[string]decimal.Decimal{
		"US":    d("600"),
		"China": d("450"),
		"Mars":  d("1"),
	}

	res, err := Calculate(prices, DefaultTotalTons)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.NotContains(t, res.Results, "India")
	assert.Equal(t, []string{"Mars"}, res.Skipped)

	china := res.Results["China"]
	assertDecimal(t, "746.5", china.LandedPerTon, "China landed")
	assertDecimal(t, "7465000", china.TotalCost, "China total")
	assertDecimal(t, "211.6", china.KgPerTon, "China kg/t")
	assertDecimal(t, "2116000", china.TotalKg, "China total kg")

	us := res.Results["US"]
	assertDecimal(t, "7000000", us.TotalCost, "US total")
	assertDecimal(t, "10000", res.TotalTons, "tons")
}

func TestCalculateInvalid(t *testing.T) {
	prices := map[string]decimal.Decimal{"US": d("600")}

	for _, tons := range []string{"0", "-5"} {
		_, err := Calculate(prices, d(tons))
		assert.ErrorIs(t, err, ErrInvalidTons)
	}

	_, err := Calculate(map[string]decimal.Decimal{"India": d("-1")}, DefaultTotalTons)
	assert.Error(t, err)
}

func TestCalculateEmpty(t *testing.T) {
	res, err := Calculate(nil, d("1"))
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Empty(t, res.Skipped)
}
