package model

import "time"

// Summary holds the headline metrics for a scored dataset.
type Summary struct {
	ParcelCount    int     `json:"parcel_count"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	TotalEnergyGWh float64 `json:"total_energy_gwh"`
	Households     int64   `json:"households"`
	CO2Tons        int64   `json:"co2_tons"`
	ScoreMin       float64 `json:"score_min"`
	ScoreMax       float64 `json:"score_max"`
	ScoreMean      float64 `json:"score_mean"`
}

// RankedParcel is the persisted view of one parcel in a run's top list.
type RankedParcel struct {
	Rank       int     `json:"rank"`
	ID         string  `json:"id"`
	Zone       string  `json:"zone,omitempty"`
	Score      float64 `json:"score"`
	EnergyKWh  float64 `json:"energy_kwh"`
	Households float64 `json:"households"`
	CO2Tons    float64 `json:"co2_tons"`
}

// Run records the inputs and outcome of one scoring run.
type Run struct {
	ID                  string             `json:"id"`
	Source              string             `json:"source"`
	ContentHash         string             `json:"content_hash"`
	Weights             map[string]float64 `json:"weights"`
	NormalizedWeights   map[string]float64 `json:"normalized_weights"`
	OnlyAvailable       bool               `json:"only_available"`
	ParcelCount         int                `json:"parcel_count"`
	DroppedInvalidDates int                `json:"dropped_invalid_dates"`
	Summary             Summary            `json:"summary"`
	Top                 []RankedParcel     `json:"top"`
	CreatedAt           time.Time          `json:"created_at"`
}

// RankedFromParcels converts an ordered parcel slice into ranked rows.
func RankedFromParcels(parcels []Parcel) []RankedParcel {
	out := make([]RankedParcel, 0, len(parcels))
	for i, p := range parcels {
		out = append(out, RankedParcel{
			Rank:       i + 1,
			ID:         p.Text(ColID),
			Zone:       p.Text(ColZone),
			Score:      p.Score,
			EnergyKWh:  p.EnergyKWh,
			Households: p.Households,
			CO2Tons:    p.CO2Tons,
		})
	}
	return out
}
