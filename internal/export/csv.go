package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/model"
)

// CSVFilename is the suggested download name for the ranked export.
const CSVFilename = "ranked_land_parcels.csv"

// WriteCSV writes the ranked parcels with a header row and no index column.
func WriteCSV(w io.Writer, ds *model.Dataset, ranked []model.Parcel) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(RankedColumns(ds)); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}
	for _, row := range RankedRows(ds, ranked) {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush CSV")
	}
	return nil
}

// WriteCSVFile writes the ranked CSV to path.
func WriteCSVFile(path string, ds *model.Dataset, ranked []model.Parcel) error {
	return WriteFile(path, func(w io.Writer) error {
		return WriteCSV(w, ds, ranked)
	})
}

// WriteFile creates path and hands it to write. A failed Close is reported
// when write itself succeeded.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	return writeAndClose(f, path, write)
}

func writeAndClose(wc io.WriteCloser, path string, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}
