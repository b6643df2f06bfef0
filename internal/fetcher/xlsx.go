package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects where the parcel table sits in a workbook.
type XLSXOptions struct {
	SheetName string // empty = first sheet; matched case-insensitively
	SkipRows  int    // title rows above the header
}

// ReadXLSX returns the displayed text of every row of one sheet. Cells are
// trimmed and trailing blank cells dropped; missing rows come back empty so
// BuildDataset can skip them.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := pickSheet(wb, opts.SheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		rows = append(rows, cellTexts(row))
	}
	return rows, nil
}

func pickSheet(wb *xlsx.File, name string) (*xlsx.Sheet, error) {
	if len(wb.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	if name == "" {
		return wb.Sheets[0], nil
	}
	if sheet, ok := wb.Sheet[name]; ok {
		return sheet, nil
	}
	for _, sheet := range wb.Sheets {
		if strings.EqualFold(sheet.Name, name) {
			return sheet, nil
		}
	}
	return nil, eris.Errorf("xlsx: sheet %q not found", name)
}

func cellTexts(row *xlsx.Row) []string {
	out := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		out = append(out, strings.TrimSpace(cell.String()))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
