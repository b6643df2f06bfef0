package scorer

import "go.uber.org/zap"

// Severity grades a non-fatal condition.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// Warning reports a degraded-but-valid condition met during a run.
type Warning struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Column   string   `json:"column,omitempty"`
	Affects  string   `json:"affects,omitempty"` // derived output that defaults to zero
	Count    int      `json:"count,omitempty"`
	Message  string   `json:"message"`
}

// Warning codes.
const (
	CodeMissingColumn      = "missing_column"
	CodeNonNumericCells    = "non_numeric_cells"
	CodeEnergyUnavailable  = "energy_unavailable"
	CodeNoAvailability     = "availability_column_missing"
	CodeInvalidDates       = "invalid_dates_dropped"
	CodeNoMapData          = "no_map_data"
	CodeColorFieldFallback = "color_field_fallback"
)

// LogWarnings writes warnings to the global logger.
func LogWarnings(warnings []Warning) {
	for _, w := range warnings {
		fields := []zap.Field{
			zap.String("code", w.Code),
			zap.String("column", w.Column),
		}
		if w.Affects != "" {
			fields = append(fields, zap.String("affects", w.Affects))
		}
		if w.Count > 0 {
			fields = append(fields, zap.Int("count", w.Count))
		}
		if w.Severity == SeverityInfo {
			zap.L().Info(w.Message, fields...)
			continue
		}
		zap.L().Warn(w.Message, fields...)
	}
}
