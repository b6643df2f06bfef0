package scorer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/landrank/internal/model"
)

// Summarize computes the headline metrics over parcels. Households and CO2
// totals are truncated to whole numbers.
func Summarize(parcels []model.Parcel) model.Summary {
	s := model.Summary{ParcelCount: len(parcels)}
	if len(parcels) == 0 {
		return s
	}

	scores := make([]float64, len(parcels))
	energy := make([]float64, len(parcels))
	households := make([]float64, len(parcels))
	co2 := make([]float64, len(parcels))
	for i, p := range parcels {
		scores[i] = p.Score
		energy[i] = p.EnergyKWh
		households[i] = p.Households
		co2[i] = p.CO2Tons
	}

	s.TotalEnergyKWh = floats.Sum(energy)
	s.TotalEnergyGWh = s.TotalEnergyKWh / 1e6
	s.Households = int64(floats.Sum(households))
	s.CO2Tons = int64(floats.Sum(co2))
	s.ScoreMin = floats.Min(scores)
	s.ScoreMax = floats.Max(scores)
	s.ScoreMean = stat.Mean(scores, nil)
	return s
}
