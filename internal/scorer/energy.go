package scorer

import (
	"fmt"
	"slices"

	"github.com/sells-group/landrank/internal/model"
)

// Energy estimate constants.
const (
	PanelEfficiency         = 0.15  // fraction of irradiance converted to electricity
	HouseholdConsumptionKWh = 3600  // kWh per household per year
	CarbonFactorKgPerKWh    = 0.233 // kg CO2 displaced per kWh
)

// EstimateEnergy returns annual energy, households supplied and CO2 tons
// saved for a parcel of the given area and irradiance.
func EstimateEnergy(area, irradiance float64) (energyKWh, households, co2Tons float64) {
	energyKWh = area * irradiance * PanelEfficiency
	households = energyKWh / HouseholdConsumptionKWh
	co2Tons = energyKWh * CarbonFactorKgPerKWh / 1000
	return energyKWh, households, co2Tons
}

// ComputeEnergyEstimates returns a copy of ds with Energy_kWh, Households and
// CO2_tons set. When SolarIrradiance or Area_m2 is absent every parcel gets
// zeros and a warning is returned. Parcels with a blank, non-numeric or
// negative input get zeros and are counted in a warning.
func ComputeEnergyEstimates(ds *model.Dataset) (*model.Dataset, []Warning) {
	parcels := slices.Clone(ds.Parcels)
	for i := range parcels {
		parcels[i].EnergyKWh, parcels[i].Households, parcels[i].CO2Tons = 0, 0, 0
	}

	var missing []string
	for _, col := range []string{model.ColSolarIrradiance, model.ColArea} {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		var warnings []Warning
		for _, col := range missing {
			warnings = append(warnings, Warning{
				Severity: SeverityWarn,
				Code:     CodeEnergyUnavailable,
				Column:   col,
				Affects:  "Energy_kWh, Households, CO2_tons",
				Message:  fmt.Sprintf("missing %q: energy impacts are 0", col),
			})
		}
		return ds.WithParcels(parcels), warnings
	}

	var badArea, badIrr int
	for i := range parcels {
		area, okA := parcels[i].Number(model.ColArea)
		irr, okI := parcels[i].Number(model.ColSolarIrradiance)
		// Estimates are non-negative; a negative input is as unusable as a blank one.
		okA = okA && area >= 0
		okI = okI && irr >= 0
		if !okA {
			badArea++
		}
		if !okI {
			badIrr++
		}
		if !okA || !okI {
			continue
		}
		parcels[i].EnergyKWh, parcels[i].Households, parcels[i].CO2Tons = EstimateEnergy(area, irr)
	}

	var warnings []Warning
	if badArea > 0 {
		warnings = append(warnings, nonNumericWarning(model.ColArea, "Energy_kWh", badArea))
	}
	if badIrr > 0 {
		warnings = append(warnings, nonNumericWarning(model.ColSolarIrradiance, "Energy_kWh", badIrr))
	}
	return ds.WithParcels(parcels), warnings
}
