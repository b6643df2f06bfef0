package export

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/landrank/internal/model"
)

// SheetName is the worksheet holding the ranked parcels.
const SheetName = "Ranked"

// WriteXLSXFile writes the ranked parcels to a one-sheet workbook at path.
// Derived fields are stored as numbers; everything else as text.
func WriteXLSXFile(path string, ds *model.Dataset, ranked []model.Parcel) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	cols := RankedColumns(ds)
	header := sheet.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c)
	}

	for _, p := range ranked {
		row := sheet.AddRow()
		for _, c := range cols {
			cell := row.AddCell()
			if slices.Contains(model.DerivedColumns, c) {
				v, _ := p.Derived(c)
				cell.SetFloat(v)
				continue
			}
			cell.SetString(cellValue(p, c))
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
