// Package export renders ranked parcels as a console table, CSV or XLSX and
// formats the headline summary.
package export

import (
	"slices"
	"strconv"

	"github.com/sells-group/landrank/internal/model"
)

// topColumns is the preferred column order of the top-N table.
var topColumns = []string{
	model.ColID,
	model.ColZone,
	model.ColScore,
	model.ColEnergy,
	model.ColHouseholds,
	model.ColCO2,
	model.ColAvailableFrom,
}

// TopColumns returns the top-N table columns that exist for ds. Derived
// fields are always present.
func TopColumns(ds *model.Dataset) []string {
	cols := make([]string, 0, len(topColumns))
	for _, c := range topColumns {
		if slices.Contains(model.DerivedColumns, c) || ds.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// RankedColumns returns the full export header: source columns in source
// order, then derived fields. A source column named like a derived field is
// replaced in place.
func RankedColumns(ds *model.Dataset) []string {
	cols := slices.Clone(ds.Columns)
	for _, d := range model.DerivedColumns {
		if !slices.Contains(cols, d) {
			cols = append(cols, d)
		}
	}
	return cols
}

// cellValue renders col for a full export row.
func cellValue(p model.Parcel, col string) string {
	if v, ok := p.Derived(col); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if col == model.ColAvailableFrom && p.HasAvailableFrom {
		return p.AvailableFrom.Format("2006-01-02")
	}
	return p.Text(col)
}

// RankedRows renders every parcel against RankedColumns.
func RankedRows(ds *model.Dataset, parcels []model.Parcel) [][]string {
	cols := RankedColumns(ds)
	rows := make([][]string, len(parcels))
	for i, p := range parcels {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cellValue(p, c)
		}
		rows[i] = row
	}
	return rows
}
