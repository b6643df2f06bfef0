package geo

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/model"
	"github.com/sells-group/landrank/internal/scorer"
)

// Point is one parcel on the map.
type Point struct {
	ID            string            `json:"id"`
	Lat           float64           `json:"lat"`
	Lon           float64           `json:"lon"`
	Size          float64           `json:"size"`
	Color         float64           `json:"color"`
	Score         float64           `json:"score"`
	Households    float64           `json:"households"`
	CO2Tons       float64           `json:"co2_tons"`
	AvailableYear int               `json:"available_year,omitempty"`
	Hover         map[string]string `json:"hover"`
}

// Center is a map center in degrees.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Options configures BuildMap.
type Options struct {
	Style   string
	ColorBy string
	Zoom    int
	// Fallback is used as the center when no points can be placed.
	Fallback Center
}

// DefaultOptions returns the default map view.
func DefaultOptions() Options {
	return Options{
		Style:    StyleOpenStreetMap,
		ColorBy:  model.ColScore,
		Zoom:     DefaultZoom,
		Fallback: Center{Lat: DefaultCenterLat, Lon: DefaultCenterLon},
	}
}

// Map is a renderable point map.
type Map struct {
	Style   string  `json:"style"`
	ColorBy string  `json:"color_by"`
	Zoom    int     `json:"zoom"`
	Center  Center  `json:"center"`
	Points  []Point `json:"points"`
}

// Empty reports whether the map has nothing to draw.
func (m *Map) Empty() bool {
	return m == nil || len(m.Points) == 0
}

// BuildMap places every parcel with valid coordinates. Unknown styles or
// color fields are errors. A color field missing from the source falls
// back to Score. Missing coordinates or zero placeable parcels give an
// empty map and a warning; that is never an error.
func BuildMap(ds *model.Dataset, opts Options) (*Map, []scorer.Warning, error) {
	if opts.Style == "" {
		opts.Style = StyleOpenStreetMap
	}
	if opts.ColorBy == "" {
		opts.ColorBy = model.ColScore
	}
	if opts.Zoom == 0 {
		opts.Zoom = DefaultZoom
	}
	if err := ValidateStyle(opts.Style); err != nil {
		return nil, nil, err
	}
	if err := ValidateColorField(opts.ColorBy); err != nil {
		return nil, nil, err
	}

	m := &Map{Style: opts.Style, ColorBy: opts.ColorBy, Zoom: opts.Zoom, Center: opts.Fallback}
	var warnings []scorer.Warning

	if _, derived := (model.Parcel{}).Derived(m.ColorBy); !derived && !ds.HasColumn(m.ColorBy) {
		warnings = append(warnings, scorer.Warning{
			Severity: scorer.SeverityWarn,
			Code:     scorer.CodeColorFieldFallback,
			Column:   m.ColorBy,
			Message:  fmt.Sprintf("missing %q: coloring by %s", m.ColorBy, model.ColScore),
		})
		m.ColorBy = model.ColScore
	}

	if !ds.HasColumn(model.ColLatitude) || !ds.HasColumn(model.ColLongitude) {
		warnings = append(warnings, noMapData("parcel table has no Latitude/Longitude columns"))
		return m, warnings, nil
	}

	hasAvailable := ds.HasColumn(model.ColAvailableFrom)
	for _, p := range ds.Parcels {
		pt, ok := BuildPoint(p, m.ColorBy, hasAvailable)
		if ok {
			m.Points = append(m.Points, pt)
		}
	}

	if len(m.Points) == 0 {
		warnings = append(warnings, noMapData("no parcels with valid coordinates"))
		return m, warnings, nil
	}

	m.Center = BoundsCenter(m.Points)
	if skipped := ds.Len() - len(m.Points); skipped > 0 {
		zap.L().Debug("parcels without valid coordinates left off map", zap.Int("count", skipped))
	}
	return m, warnings, nil
}

// BuildPoint converts one parcel into a map point. It reports false when
// the coordinates are missing or out of range.
func BuildPoint(p model.Parcel, colorBy string, withAvailable bool) (Point, bool) {
	lat, okLat := p.Number(model.ColLatitude)
	lon, okLon := p.Number(model.ColLongitude)
	if !okLat || !okLon || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, false
	}

	size, _ := p.Number(model.ColArea)
	color, _ := p.Value(colorBy)

	pt := Point{
		ID:         p.Text(model.ColID),
		Lat:        lat,
		Lon:        lon,
		Size:       size,
		Color:      color,
		Score:      p.Score,
		Households: p.Households,
		CO2Tons:    p.CO2Tons,
		Hover: map[string]string{
			model.ColID:         p.Text(model.ColID),
			model.ColScore:      strconv.FormatFloat(p.Score, 'f', 2, 64),
			model.ColHouseholds: strconv.FormatFloat(p.Households, 'f', 1, 64),
			model.ColCO2:        strconv.FormatFloat(p.CO2Tons, 'f', 2, 64),
		},
	}
	if withAvailable && p.HasAvailableFrom {
		pt.AvailableYear = p.AvailableFrom.Year()
		pt.Hover[model.ColAvailableFrom] = strconv.Itoa(pt.AvailableYear)
	}
	return pt, true
}

// BoundsCenter returns the center of the bounding box of points.
func BoundsCenter(points []Point) Center {
	b := geom.NewBounds(geom.XY)
	for _, pt := range points {
		b.Extend(geom.NewPointFlat(geom.XY, []float64{pt.Lon, pt.Lat}))
	}
	return Center{
		Lat: (b.Min(1) + b.Max(1)) / 2,
		Lon: (b.Min(0) + b.Max(0)) / 2,
	}
}

func noMapData(msg string) scorer.Warning {
	return scorer.Warning{
		Severity: scorer.SeverityWarn,
		Code:     scorer.CodeNoMapData,
		Message:  "map skipped: " + msg,
	}
}
