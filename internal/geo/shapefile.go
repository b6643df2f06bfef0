package geo

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Shapefile attribute names. DBF field names are limited to 10 characters.
const (
	fieldID    = "ID"
	fieldScore = "SCORE"
	fieldColor = "COLOR"
	fieldSize  = "AREA_M2"
	fieldHouse = "HOUSEHOLDS"
	fieldCO2   = "CO2_TONS"
	fieldAvail = "AVAIL_YEAR"
)

var shapeFields = []shp.Field{
	shp.StringField(fieldID, 64),
	shp.FloatField(fieldScore, 18, 4),
	shp.FloatField(fieldColor, 18, 4),
	shp.FloatField(fieldSize, 18, 2),
	shp.FloatField(fieldHouse, 18, 4),
	shp.FloatField(fieldCO2, 18, 4),
	shp.StringField(fieldAvail, 4),
}

// WriteShapefile writes the map points as a WGS84 point shapefile at path
// (.shp plus the .shx and .dbf siblings, and a .prj).
func (m *Map) WriteShapefile(path string) error {
	if m.Empty() {
		return eris.New("geo: no points to write")
	}
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrap(err, "geo: create shapefile")
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return eris.Wrap(err, "geo: set shapefile fields")
	}

	for _, pt := range m.Points {
		row := int(w.Write(&shp.Point{X: pt.Lon, Y: pt.Lat}))

		avail := ""
		if pt.AvailableYear > 0 {
			avail = strconv.Itoa(pt.AvailableYear)
		}

		values := []any{pt.ID, pt.Score, pt.Color, pt.Size, pt.Households, pt.CO2Tons, avail}
		for field, v := range values {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return eris.Wrapf(err, "geo: write attribute %d for %s", field, pt.ID)
			}
		}
	}

	if err := writePRJ(path); err != nil {
		return err
	}

	zap.L().Info("shapefile written", zap.String("path", path), zap.Int("points", len(m.Points)))
	return nil
}

const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

func writePRJ(shpPath string) error {
	prj := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84WKT), 0o644); err != nil {
		return eris.Wrap(err, "geo: write prj")
	}
	return nil
}
