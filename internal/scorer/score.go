package scorer

import (
	"fmt"
	"slices"

	"github.com/sells-group/landrank/internal/model"
)

// ActiveComponents reports which components have their source column in ds.
func ActiveComponents(ds *model.Dataset, cat Catalogue) map[string]bool {
	active := make(map[string]bool, len(cat))
	for _, comp := range cat {
		active[comp.Name] = ds.HasColumn(comp.Column)
	}
	return active
}

// ComputeScores returns a copy of ds with Score set on every parcel, the
// normalized weights that were applied, and warnings for missing columns.
// Cells that are empty or non-numeric in an active column contribute 0 for
// that parcel.
func ComputeScores(ds *model.Dataset, w Weights, cat Catalogue) (*model.Dataset, map[string]float64, []Warning) {
	active := ActiveComponents(ds, cat)
	normalized := NormalizeWeights(cat, w, active)

	var warnings []Warning
	for _, comp := range cat {
		if !active[comp.Name] {
			warnings = append(warnings, Warning{
				Severity: SeverityWarn,
				Code:     CodeMissingColumn,
				Column:   comp.Column,
				Affects:  comp.Name,
				Message:  fmt.Sprintf("missing %q: %s score is 0", comp.Column, comp.Name),
			})
		}
	}

	parcels := slices.Clone(ds.Parcels)
	bad := make(map[string]int)

	for i := range parcels {
		var score float64
		for _, comp := range cat {
			nw := normalized[comp.Name]
			if !active[comp.Name] || nw == 0 {
				continue
			}
			v, ok := parcels[i].Number(comp.Column)
			if !ok {
				bad[comp.Column]++
				continue
			}
			score += nw * comp.Transform(v)
		}
		parcels[i].Score = score
	}

	for _, comp := range cat {
		if n := bad[comp.Column]; n > 0 {
			warnings = append(warnings, nonNumericWarning(comp.Column, comp.Name, n))
		}
	}

	return ds.WithParcels(parcels), normalized, warnings
}

func nonNumericWarning(column, affects string, n int) Warning {
	return Warning{
		Severity: SeverityWarn,
		Code:     CodeNonNumericCells,
		Column:   column,
		Affects:  affects,
		Count:    n,
		Message:  fmt.Sprintf("%d empty or invalid %q values treated as 0", n, column),
	}
}
