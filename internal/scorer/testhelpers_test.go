package scorer

import "github.com/sells-group/landrank/internal/model"

// newDataset builds a dataset from a header and string rows.
func newDataset(cols []string, rows ...[]string) *model.Dataset {
	ds := &model.Dataset{Source: "test.csv", Columns: cols}
	for i, row := range rows {
		cells := make(map[string]string, len(cols))
		for j, col := range cols {
			if j < len(row) {
				cells[col] = row[j]
			}
		}
		ds.Parcels = append(ds.Parcels, model.Parcel{Seq: i, Cells: cells})
	}
	return ds
}

// withoutColumn returns a copy of ds with col removed from the header and cells.
func withoutColumn(ds *model.Dataset, col string) *model.Dataset {
	out := &model.Dataset{Source: ds.Source}
	for _, c := range ds.Columns {
		if c != col {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, p := range ds.Parcels {
		cells := make(map[string]string, len(p.Cells))
		for k, v := range p.Cells {
			if k != col {
				cells[k] = v
			}
		}
		p.Cells = cells
		out.Parcels = append(out.Parcels, p)
	}
	return out
}

var fullColumns = []string{
	model.ColID, model.ColZone, model.ColFuelPoverty, model.ColSolarIrradiance,
	model.ColGridDistance, model.ColExistingProjects, model.ColArea,
	model.ColLatitude, model.ColLongitude,
}

func sampleDataset() *model.Dataset {
	return newDataset(fullColumns,
		[]string{"P1", "North", "0.8", "4.5", "500", "1", "1000", "53.38", "-1.47"},
		[]string{"P2", "South", "0.2", "3.0", "0", "4", "2000", "53.40", "-1.50"},
		[]string{"P3", "East", "0.5", "5.0", "2000", "0", "500", "53.35", "-1.42"},
	)
}
