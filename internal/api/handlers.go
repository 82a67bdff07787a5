package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	serrors "github.com/sartorproj/steelcast/internal/errors"
	"github.com/sartorproj/steelcast/landed"
	"github.com/sartorproj/steelcast/pipeline"
)

// ForecastRequest is the body of /api/forecast-price and
// /api/compare-countries.
type ForecastRequest struct {
	SteelRoute     string             `json:"steelRoute"`
	FutureYear     int                `json:"futureYear"`
	Country        string             `json:"country"`
	Countries      []string           `json:"countries"`
	MWCapacity     *float64           `json:"mwCapacity"`
	CarbonTax      *float64           `json:"carbonTax"`
	FallbackPrice  *float64           `json:"fallbackPrice"`
	BFAssumptions  map[string]float64 `json:"bfAssumptions"`
	EAFAssumptions map[string]float64 `json:"eafAssumptions"`
}

// CalculateCostRequest is the body of /api/calculate-cost.
type CalculateCostRequest struct {
	BasePrices map[string]float64 `json:"basePrices"`
	TotalTons  float64            `json:"totalTons"`
}

// CalculateCostResponse wraps a landed-cost result.
type CalculateCostResponse struct {
	Success bool `json:"success"`
	*landed.Result
}

func (s *Server) input(req ForecastRequest) pipeline.Input {
	in := pipeline.Input{
		TargetYear: req.FutureYear,
		Country:    strings.TrimSpace(req.Country),
		CapacityMW: s.defaults.CapacityMW,
		CarbonTax:  s.defaults.CarbonTax,
		Base:       s.defaults.Base.With(req.BFAssumptions),
		Alt:        s.defaults.Alt.With(req.EAFAssumptions),
	}
	if req.MWCapacity != nil {
		in.CapacityMW = decimal.NewFromFloat(*req.MWCapacity)
	}
	if req.CarbonTax != nil {
		in.CarbonTax = decimal.NewFromFloat(*req.CarbonTax)
	}
	if req.FallbackPrice != nil {
		in.FallbackPrice = decimal.NewFromFloat(*req.FallbackPrice)
	}
	return in
}

func (s *Server) forecastPrice(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.FutureYear == 0 || strings.TrimSpace(req.Country) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: futureYear, country"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	res := s.runner.Run(ctx, s.input(req))
	c.JSON(statusFor(res), res)
}

func (s *Server) compareCountries(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.FutureYear == 0 || len(req.Countries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: futureYear, countries"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	results := s.runner.RunCountries(ctx, s.input(req), req.Countries)

	// A shared failure (series, year) fails every country the same way.
	status := http.StatusOK
	if len(results) > 0 && !results[0].Success && allFailed(results) {
		status = statusFor(results[0])
	}
	c.JSON(status, gin.H{"success": status == http.StatusOK, "results": results})
}

func (s *Server) calculateCost(c *gin.Context) {
	var req CalculateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.BasePrices == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid basePrices object"})
		return
	}
	if req.TotalTons <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid totalTons (must be > 0)"})
		return
	}

	prices := make(map[string]decimal.Decimal, len(req.BasePrices))
	for k, v := range req.BasePrices {
		prices[k] = decimal.NewFromFloat(v)
	}

	res, err := landed.Calculate(prices, decimal.NewFromFloat(req.TotalTons))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, CalculateCostResponse{Success: true, Result: res})
}

func statusFor(res pipeline.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch serrors.Type(res.ErrorType) {
	case serrors.TypeInput:
		return http.StatusUnprocessableEntity
	case serrors.TypeMissingReference:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func allFailed(results []pipeline.Result) bool {
	for _, r := range results {
		if r.Success {
			return false
		}
	}
	return true
}
