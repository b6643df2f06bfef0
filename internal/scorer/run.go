package scorer

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/model"
)

// DefaultTopN is the number of parcels shown in the ranked table.
const DefaultTopN = 10

// Options is the full scoring configuration for one run.
type Options struct {
	Catalogue     Catalogue
	Weights       Weights
	OnlyAvailable bool
	Today         time.Time
	TopN          int
}

// DefaultOptions returns the default catalogue and weights with the
// availability filter on.
func DefaultOptions() Options {
	cat := DefaultCatalogue()
	return Options{
		Catalogue:     cat,
		Weights:       DefaultWeights(cat),
		OnlyAvailable: true,
		TopN:          DefaultTopN,
	}
}

// Result is the output of Run.
type Result struct {
	Dataset             *model.Dataset     `json:"-"`
	Ranked              []model.Parcel     `json:"-"` // every parcel, Score descending
	Top                 []model.Parcel     `json:"-"`
	NormalizedWeights   map[string]float64 `json:"normalized_weights"`
	AvailabilityApplied bool               `json:"availability_applied"`
	DroppedInvalidDates int                `json:"dropped_invalid_dates"`
	DroppedUpcoming     int                `json:"dropped_upcoming"`
	Summary             model.Summary      `json:"summary"`
	Warnings            []Warning          `json:"warnings"`
}

// Run filters, scores, estimates and ranks ds. The input dataset is not
// modified. The only error is an invalid weight configuration; missing
// data degrades to zeros and warnings.
func Run(ds *model.Dataset, opts Options) (*Result, error) {
	if ds == nil {
		return nil, eris.New("scorer: nil dataset")
	}
	if len(opts.Catalogue) == 0 {
		opts.Catalogue = DefaultCatalogue()
	}
	if opts.Weights == nil {
		opts.Weights = DefaultWeights(opts.Catalogue)
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}
	if err := opts.Weights.Validate(opts.Catalogue); err != nil {
		return nil, err
	}

	avail := FilterAvailable(ds, opts.Today, opts.OnlyAvailable)
	warnings := append([]Warning(nil), avail.Warnings...)

	scored, normalized, w := ComputeScores(avail.Dataset, opts.Weights, opts.Catalogue)
	warnings = append(warnings, w...)

	estimated, w := ComputeEnergyEstimates(scored)
	warnings = append(warnings, w...)

	ranked := Rank(estimated.Parcels, 0)
	top := ranked
	if opts.TopN > 0 && len(top) > opts.TopN {
		top = top[:opts.TopN]
	}

	res := &Result{
		Dataset:             estimated,
		Ranked:              ranked,
		Top:                 top,
		NormalizedWeights:   normalized,
		AvailabilityApplied: avail.Applied,
		DroppedInvalidDates: avail.DroppedInvalid,
		DroppedUpcoming:     avail.DroppedUpcoming,
		Summary:             Summarize(ranked),
		Warnings:            warnings,
	}

	zap.L().Debug("scorer: run complete",
		zap.String("source", ds.Source),
		zap.Int("input", ds.Len()),
		zap.Int("scored", len(ranked)),
		zap.Int("dropped_invalid_dates", avail.DroppedInvalid),
		zap.Int("warnings", len(warnings)),
	)

	return res, nil
}

// ToRun converts a result into a persistable run record.
func (r *Result) ToRun(id string, weights Weights, onlyAvailable bool, createdAt time.Time) model.Run {
	return model.Run{
		ID:                  id,
		Source:              r.Dataset.Source,
		ContentHash:         r.Dataset.ContentHash,
		Weights:             weights,
		NormalizedWeights:   r.NormalizedWeights,
		OnlyAvailable:       onlyAvailable,
		ParcelCount:         len(r.Ranked),
		DroppedInvalidDates: r.DroppedInvalidDates,
		Summary:             r.Summary,
		Top:                 model.RankedFromParcels(r.Top),
		CreatedAt:           createdAt,
	}
}
