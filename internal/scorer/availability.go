package scorer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/landrank/internal/model"
)

// ParseAvailableYear parses a 4-digit year and returns January 1 of that
// year in UTC.
func ParseAvailableYear(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return time.Time{}, false
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
}

// AvailabilityPartition splits parcels by whether AvailableFrom parsed.
type AvailabilityPartition struct {
	Valid   []model.Parcel
	Invalid []model.Parcel
}

// PartitionAvailability parses AvailableFrom on every parcel. Valid parcels
// carry the parsed date; invalid ones are returned separately so callers can
// report them.
func PartitionAvailability(ds *model.Dataset) AvailabilityPartition {
	var part AvailabilityPartition
	for _, p := range ds.Parcels {
		t, ok := ParseAvailableYear(p.Text(model.ColAvailableFrom))
		if !ok {
			part.Invalid = append(part.Invalid, p)
			continue
		}
		p.AvailableFrom = t
		p.HasAvailableFrom = true
		part.Valid = append(part.Valid, p)
	}
	return part
}

// AvailabilityResult is the outcome of FilterAvailable.
type AvailabilityResult struct {
	Dataset         *model.Dataset
	Applied         bool // AvailableFrom column present
	DroppedInvalid  int
	DroppedUpcoming int
	Warnings        []Warning
}

// FilterAvailable drops parcels whose AvailableFrom is not a valid year and,
// when onlyAvailable is set, parcels that become available after today.
// Datasets without the column pass through unchanged with an info signal.
func FilterAvailable(ds *model.Dataset, today time.Time, onlyAvailable bool) AvailabilityResult {
	if !ds.HasColumn(model.ColAvailableFrom) {
		return AvailabilityResult{
			Dataset: ds,
			Warnings: []Warning{{
				Severity: SeverityInfo,
				Code:     CodeNoAvailability,
				Column:   model.ColAvailableFrom,
				Message:  fmt.Sprintf("%q column not found; availability filter skipped", model.ColAvailableFrom),
			}},
		}
	}

	part := PartitionAvailability(ds)
	res := AvailabilityResult{Applied: true, DroppedInvalid: len(part.Invalid)}
	if res.DroppedInvalid > 0 {
		res.Warnings = append(res.Warnings, Warning{
			Severity: SeverityWarn,
			Code:     CodeInvalidDates,
			Column:   model.ColAvailableFrom,
			Count:    res.DroppedInvalid,
			Message:  fmt.Sprintf("dropped %d parcels with an unparseable %q year", res.DroppedInvalid, model.ColAvailableFrom),
		})
	}

	kept := part.Valid
	if onlyAvailable {
		cutoff := dateOnly(today)
		kept = make([]model.Parcel, 0, len(part.Valid))
		for _, p := range part.Valid {
			if p.AvailableFrom.After(cutoff) {
				res.DroppedUpcoming++
				continue
			}
			kept = append(kept, p)
		}
	}

	res.Dataset = ds.WithParcels(kept)
	return res
}

// dateOnly truncates t to midnight UTC of its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
