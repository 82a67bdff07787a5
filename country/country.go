// Package country holds per-country multipliers applied to input prices.
package country

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Factors are the multipliers and labor costs for one country.
type Factors struct {
	Country     string          `json:"country"`
	IronOre     decimal.Decimal `json:"iron_ore"`
	Coal        decimal.Decimal `json:"coal"`
	Scrap       decimal.Decimal `json:"scrap"`
	Fluxes      decimal.Decimal `json:"fluxes"`
	LaborBase   decimal.Decimal `json:"labor_bf"`
	LaborAlt    decimal.Decimal `json:"labor_eaf"`
	Electricity decimal.Decimal `json:"electricity"`
	CarbonTax   decimal.Decimal `json:"carbon_tax"`
}

// Default returns neutral factors for id: every multiplier 1.0, base labor
// 50 and alternative labor 40.
func Default(id string) Factors {
	one := decimal.NewFromInt(1)
	return Factors{
		Country:     id,
		IronOre:     one,
		Coal:        one,
		Scrap:       one,
		Fluxes:      one,
		LaborBase:   decimal.NewFromInt(50),
		LaborAlt:    decimal.NewFromInt(40),
		Electricity: one,
		CarbonTax:   one,
	}
}

// Table maps country identifiers to factors. A Table is read-only after
// construction and safe for concurrent lookups.
type Table struct {
	rows map[string]Factors
}

// NewTable builds a table from rows. Later rows replace earlier ones with
// the same country.
func NewTable(rows ...Factors) *Table {
	t := &Table{rows: make(map[string]Factors, len(rows))}
	for _, r := range rows {
		r.Country = strings.TrimSpace(r.Country)
		t.rows[r.Country] = r
	}
	return t
}

// Lookup returns the factors for id. When the table is nil or has no row
// for id it returns Default(id) and false.
func (t *Table) Lookup(id string) (Factors, bool) {
	id = strings.TrimSpace(id)
	if t == nil {
		return Default(id), false
	}
	f, ok := t.rows[id]
	if !ok {
		return Default(id), false
	}
	return f, true
}

// Countries returns the identifiers in the table, sorted.
func (t *Table) Countries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.rows))
	for id := range t.rows {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of countries in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

var columns = []string{
	"country", "iron_ore", "coal", "scrap", "fluxes",
	"labor_bf", "labor_eaf", "electricity", "carbon_tax",
}

// LoadTable reads a factor table from a CSV file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open country table: %w", err)
	}
	defer f.Close()

	return ReadTable(f)
}

// ReadTable parses a factor table. The header must name every column in
// country,iron_ore,coal,scrap,fluxes,labor_bf,labor_eaf,electricity,carbon_tax
// in any order.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("country table is empty")
		}
		return nil, fmt.Errorf("failed to read country table header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("country table missing column %q", c)
		}
	}

	var rows []Factors
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := parseRow(record, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return NewTable(rows...), nil
}

func parseRow(record []string, idx map[string]int) (Factors, error) {
	get := func(col string) (decimal.Decimal, error) {
		raw := strings.TrimSpace(record[idx[col]])
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s %q: %w", col, raw, err)
		}
		return v, nil
	}

	f := Factors{Country: strings.TrimSpace(record[idx["country"]])}
	if f.Country == "" {
		return f, errors.New("empty country")
	}

	fields := []struct {
		col string
		dst *decimal.Decimal
	}{
		{"iron_ore", &f.IronOre},
		{"coal", &f.Coal},
		{"scrap", &f.Scrap},
		{"fluxes", &f.Fluxes},
		{"labor_bf", &f.LaborBase},
		{"labor_eaf", &f.LaborAlt},
		{"electricity", &f.Electricity},
		{"carbon_tax", &f.CarbonTax},
	}
	for _, fd := range fields {
		v, err := get(fd.col)
		if err != nil {
			return f, err
		}
		*fd.dst = v
	}
	return f, nil
}
