package geo

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection converts the map points to a GeoJSON feature collection.
// Each feature carries size, color and the hover fields as properties.
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(m.Points))}
	if m.Empty() {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for _, pt := range m.Points {
		g := geom.NewPointFlat(geom.XY, []float64{pt.Lon, pt.Lat})
		bounds.Extend(g)

		props := make(map[string]any, len(pt.Hover)+2)
		for k, v := range pt.Hover {
			props[k] = v
		}
		props["size"] = pt.Size
		props["color"] = pt.Color

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         pt.ID,
			Geometry:   g,
			Properties: props,
		})
	}
	fc.BBox = bounds
	return fc
}

// WriteGeoJSON encodes the map as a GeoJSON FeatureCollection.
func (m *Map) WriteGeoJSON(w io.Writer) error {
	data, err := json.Marshal(m.FeatureCollection())
	if err != nil {
		return eris.Wrap(err, "geo: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geo: write geojson")
	}
	return nil
}
