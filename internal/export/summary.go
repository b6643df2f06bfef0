package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/landrank/internal/model"
)

// FormattedSummary is the display form of a run summary.
type FormattedSummary struct {
	Parcels    string `json:"parcels"`
	EnergyGWh  string `json:"energy_gwh"`
	Households string `json:"households"`
	CO2Tons    string `json:"co2_tons"`
}

var printer = message.NewPrinter(language.English)

// FormatSummary renders energy in GWh with two decimals and the household
// and CO2 totals as comma-grouped integers.
func FormatSummary(s model.Summary) FormattedSummary {
	return FormattedSummary{
		Parcels:    printer.Sprintf("%d", s.ParcelCount),
		EnergyGWh:  printer.Sprintf("%.2f", s.TotalEnergyGWh),
		Households: printer.Sprintf("%d", s.Households),
		CO2Tons:    printer.Sprintf("%d", s.CO2Tons),
	}
}

// SummaryLines returns the summary as labelled console lines.
func SummaryLines(s model.Summary) []string {
	f := FormatSummary(s)
	return []string{
		"Parcels ranked:          " + f.Parcels,
		"Total energy potential:  " + f.EnergyGWh + " GWh/year",
		"Households powered:      " + f.Households,
		"CO2 avoided:             " + f.CO2Tons + " tons/year",
	}
}
