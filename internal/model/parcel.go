// Package model defines the parcel dataset and run records shared across landrank.
package model

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Source column names recognised in parcel tables.
const (
	ColID               = "ID"
	ColZone             = "Zone"
	ColFuelPoverty      = "FuelPovertyIndex"
	ColSolarIrradiance  = "SolarIrradiance"
	ColGridDistance     = "GridDistance"
	ColExistingProjects = "ExistingProjects"
	ColArea             = "Area_m2"
	ColLatitude         = "Latitude"
	ColLongitude        = "Longitude"
	ColAvailableFrom    = "AvailableFrom"
)

// Derived column names written by the engine.
const (
	ColScore      = "Score"
	ColEnergy     = "Energy_kWh"
	ColHouseholds = "Households"
	ColCO2        = "CO2_tons"
)

// DerivedColumns lists the engine-owned fields in export order.
var DerivedColumns = []string{ColScore, ColEnergy, ColHouseholds, ColCO2}

// Parcel is one row of the input table plus the fields derived from it.
type Parcel struct {
	Seq   int               `json:"seq"`   // zero-based input order
	Cells map[string]string `json:"cells"` // raw trimmed cell text; never mutated after load

	AvailableFrom    time.Time `json:"available_from,omitempty"`
	HasAvailableFrom bool      `json:"has_available_from"`

	Score      float64 `json:"score"`
	EnergyKWh  float64 `json:"energy_kwh"`
	Households float64 `json:"households"`
	CO2Tons    float64 `json:"co2_tons"`
}

// Text returns the raw cell value for col, or "" if absent.
func (p Parcel) Text(col string) string {
	return p.Cells[col]
}

// Number parses the cell for col as a float. The second return is false
// when the cell is absent, empty, not numeric, or not finite.
func (p Parcel) Number(col string) (float64, bool) {
	raw, ok := p.Cells[col]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Derived returns the value of an engine-owned field by column name.
func (p Parcel) Derived(col string) (float64, bool) {
	switch col {
	case ColScore:
		return p.Score, true
	case ColEnergy:
		return p.EnergyKWh, true
	case ColHouseholds:
		return p.Households, true
	case ColCO2:
		return p.CO2Tons, true
	}
	return 0, false
}

// Value resolves col against derived fields first, then numeric cells.
func (p Parcel) Value(col string) (float64, bool) {
	if v, ok := p.Derived(col); ok {
		return v, true
	}
	return p.Number(col)
}

// Dataset is a loaded parcel table.
type Dataset struct {
	Source      string   `json:"source"`
	ContentHash string   `json:"content_hash"`
	Columns     []string `json:"columns"` // trimmed header, source order
	Parcels     []Parcel `json:"parcels"`
}

// HasColumn reports whether the source table carries col.
func (d *Dataset) HasColumn(col string) bool {
	if d == nil {
		return false
	}
	return slices.Contains(d.Columns, col)
}

// Len returns the number of parcels.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Parcels)
}

// Clone returns a copy whose parcel slice can be modified independently.
// Cell maps are shared because they are read-only.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	return &Dataset{
		Source:      d.Source,
		ContentHash: d.ContentHash,
		Columns:     slices.Clone(d.Columns),
		Parcels:     slices.Clone(d.Parcels),
	}
}

// WithParcels returns a shallow copy of d carrying the given parcels.
func (d *Dataset) WithParcels(parcels []Parcel) *Dataset {
	return &Dataset{
		Source:      d.Source,
		ContentHash: d.ContentHash,
		Columns:     d.Columns,
		Parcels:     parcels,
	}
}
