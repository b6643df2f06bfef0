package export

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/model"
)

// Table is a rendered top-N table.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TopTable renders the top parcels for display. AvailableFrom shows the
// year only.
func TopTable(ds *model.Dataset, top []model.Parcel) Table {
	t := Table{Columns: TopColumns(ds), Rows: make([][]string, 0, len(top))}
	for _, p := range top {
		row := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			row[i] = displayValue(p, c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func displayValue(p model.Parcel, col string) string {
	switch col {
	case model.ColScore:
		return strconv.FormatFloat(p.Score, 'f', 2, 64)
	case model.ColEnergy:
		return strconv.FormatFloat(p.EnergyKWh, 'f', 1, 64)
	case model.ColHouseholds:
		return strconv.FormatFloat(p.Households, 'f', 2, 64)
	case model.ColCO2:
		return strconv.FormatFloat(p.CO2Tons, 'f', 2, 64)
	case model.ColAvailableFrom:
		if p.HasAvailableFrom {
			return strconv.Itoa(p.AvailableFrom.Year())
		}
		return ""
	}
	return p.Text(col)
}

// WriteTable prints t as aligned text columns.
func WriteTable(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		if _, err := fmt.Fprintln(w, "No parcels."); err != nil {
			return eris.Wrap(err, "export: write table")
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if err := writeTabRow(tw, append([]string{"#"}, t.Columns...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeTabRow(tw, append([]string{strconv.Itoa(i + 1)}, row...)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush table")
	}
	return nil
}

func writeTabRow(w io.Writer, cells []string) error {
	for _, c := range cells {
		if _, err := fmt.Fprint(w, c, "\t"); err != nil {
			return eris.Wrap(err, "export: write table row")
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return eris.Wrap(err, "export: write table row")
	}
	return nil
}
