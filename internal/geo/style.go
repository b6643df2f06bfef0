// Package geo builds the parcel point map and encodes it as GeoJSON or a
// point shapefile.
package geo

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/model"
)

// Map styles understood by the front end. Purely cosmetic.
const (
	StyleOpenStreetMap    = "open-street-map"
	StyleCartoPositron    = "carto-positron"
	StyleSatelliteStreets = "satellite-streets"
	StyleStamenTerrain    = "stamen-terrain"
)

// Styles lists the accepted map styles in display order.
var Styles = []string{StyleOpenStreetMap, StyleCartoPositron, StyleSatelliteStreets, StyleStamenTerrain}

// ColorFields lists the fields a map can be colored by, in display order.
var ColorFields = []string{
	model.ColScore,
	model.ColFuelPoverty,
	model.ColSolarIrradiance,
	model.ColGridDistance,
	model.ColEnergy,
}

// Default map view.
const (
	DefaultCenterLat = 53.38
	DefaultCenterLon = -1.47
	DefaultZoom      = 10
)

// ValidateStyle rejects unknown map styles.
func ValidateStyle(style string) error {
	if !slices.Contains(Styles, style) {
		return eris.Errorf("geo: unknown map style %q", style)
	}
	return nil
}

// ValidateColorField rejects unknown color fields.
func ValidateColorField(field string) error {
	if !slices.Contains(ColorFields, field) {
		return eris.Errorf("geo: unknown color field %q", field)
	}
	return nil
}
