package scorer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/landrank/internal/model"
)

var fixedToday = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestRun_EndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.Today = fixedToday

	res, err := Run(sampleDataset(), opts)
	require.NoError(t, err)

	require.Len(t, res.Ranked, 3)
	assert.Equal(t, []int{0, 2, 1}, seqs(res.Ranked))
	assert.Len(t, res.Top, 3)
	assert.False(t, res.AvailabilityApplied)

	assert.Equal(t, 3, res.Summary.ParcelCount)
	assert.InDelta(t, 1950.0, res.Summary.TotalEnergyKWh, 1e-9)
	assert.InDelta(t, 0.00195, res.Summary.TotalEnergyGWh, 1e-12)
	assert.InDelta(t, 2.47, res.Summary.ScoreMax, 1e-9)
	assert.InDelta(t, 1.08, res.Summary.ScoreMin, 1e-9)

	// Only the informational availability signal.
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, SeverityInfo, res.Warnings[0].Severity)
}

func TestRun_TopNCut(t *testing.T) {
	opts := DefaultOptions()
	opts.TopN = 2

	res, err := Run(sampleDataset(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Top, 2)
	assert.Len(t, res.Ranked, 3)
}

func TestRun_Idempotent(t *testing.T) {
	ds := sampleDataset()
	opts := DefaultOptions()
	opts.Today = fixedToday

	a, err := Run(ds, opts)
	require.NoError(t, err)
	b, err := Run(ds, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Ranked, b.Ranked)
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.NormalizedWeights, b.NormalizedWeights)

	// Score then energy, twice, by hand.
	cat := DefaultCatalogue()
	s1, _, _ := ComputeScores(ds, DefaultWeights(cat), cat)
	e1, _ := ComputeEnergyEstimates(s1)
	s2, _, _ := ComputeScores(ds, DefaultWeights(cat), cat)
	e2, _ := ComputeEnergyEstimates(s2)
	assert.Equal(t, e1.Parcels, e2.Parcels)
}

func TestRun_MissingColumnLeavesOtherFields(t *testing.T) {
	opts := DefaultOptions()
	opts.Today = fixedToday

	full, err := Run(sampleDataset(), opts)
	require.NoError(t, err)
	reduced, err := Run(withoutColumn(sampleDataset(), model.ColExistingProjects), opts)
	require.NoError(t, err)

	bySeq := func(ps []model.Parcel) map[int]model.Parcel {
		m := make(map[int]model.Parcel, len(ps))
		for _, p := range ps {
			m[p.Seq] = p
		}
		return m
	}
	a, b := bySeq(full.Ranked), bySeq(reduced.Ranked)
	for seq, p := range a {
		assert.InDelta(t, p.EnergyKWh, b[seq].EnergyKWh, 1e-12)
		assert.InDelta(t, p.Households, b[seq].Households, 1e-12)
		assert.InDelta(t, p.CO2Tons, b[seq].CO2Tons, 1e-12)
		assert.Equal(t, p.Text(model.ColID), b[seq].Text(model.ColID))
	}
	assert.Zero(t, reduced.NormalizedWeights[Fairness])
}

func TestRun_AvailabilityBeforeScoring(t *testing.T) {
	ds := newDataset(
		[]string{model.ColID, model.ColSolarIrradiance, model.ColAvailableFrom},
		[]string{"now", "3", "2020"},
		[]string{"later", "9", "2030"},
		[]string{"bad", "9", "n/a"},
	)
	opts := DefaultOptions()
	opts.Today = fixedToday

	res, err := Run(ds, opts)
	require.NoError(t, err)
	require.Len(t, res.Ranked, 1)
	assert.Equal(t, "now", res.Ranked[0].Text(model.ColID))
	assert.True(t, res.AvailabilityApplied)
	assert.Equal(t, 1, res.DroppedInvalidDates)
	assert.Equal(t, 1, res.DroppedUpcoming)

	opts.OnlyAvailable = false
	res, err = Run(ds, opts)
	require.NoError(t, err)
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "later", res.Ranked[0].Text(model.ColID))
}

func TestRun_InvalidWeights(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights = Weights{Social: 2}

	_, err := Run(sampleDataset(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight validation failed")
}

func TestRun_NilDataset(t *testing.T) {
	_, err := Run(nil, DefaultOptions())
	assert.Error(t, err)
}

func TestRun_EmptyOptionsUseDefaults(t *testing.T) {
	res, err := Run(sampleDataset(), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, res.NormalizedWeights[Social], 1e-9)
	// TopN 0 means no cut.
	assert.Len(t, res.Top, 3)
}

func TestResultToRun(t *testing.T) {
	res, err := Run(sampleDataset(), DefaultOptions())
	require.NoError(t, err)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	run := res.ToRun("run-1", DefaultWeights(DefaultCatalogue()), true, created)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "test.csv", run.Source)
	assert.Equal(t, 3, run.ParcelCount)
	assert.True(t, run.OnlyAvailable)
	assert.Equal(t, created, run.CreatedAt)
	require.Len(t, run.Top, 3)
	assert.Equal(t, "P1", run.Top[0].ID)
	assert.Equal(t, 1, run.Top[0].Rank)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, model.Summary{}, s)
}

func TestSummarize_Truncates(t *testing.T) {
	s := Summarize([]model.Parcel{
		{Score: 1, EnergyKWh: 1_500_000, Households: 416.9, CO2Tons: 349.5},
		{Score: 3, EnergyKWh: 2_000_000, Households: 555.5, CO2Tons: 466.0},
	})
	assert.InDelta(t, 3.5, s.TotalEnergyGWh, 1e-9)
	assert.Equal(t, int64(972), s.Households)
	assert.Equal(t, int64(815), s.CO2Tons)
	assert.InDelta(t, 2.0, s.ScoreMean, 1e-9)
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: social-first
weights:
  Social: 0.7
  Fairness: 0.0
only_available: false
`), 0644))

	cat := DefaultCatalogue()
	p, err := LoadProfile(path, cat)
	require.NoError(t, err)
	assert.Equal(t, "social-first", p.Name)
	require.NotNil(t, p.OnlyAvailable)
	assert.False(t, *p.OnlyAvailable)

	w := p.Apply(DefaultWeights(cat))
	assert.InDelta(t, 0.7, w[Social], 1e-9)
	assert.InDelta(t, 0.3, w[Technical], 1e-9)
	assert.Zero(t, w[Fairness])
}

func TestLoadProfile_Invalid(t *testing.T) {
	dir := t.TempDir()
	cat := DefaultCatalogue()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("weights:\n  Social: 3\n"), 0644))
	_, err := LoadProfile(bad, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "social weight")

	_, err = LoadProfile(filepath.Join(dir, "missing.yaml"), cat)
	assert.Error(t, err)

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("weights: [1, 2"), 0644))
	_, err = LoadProfile(garbled, cat)
	assert.Error(t, err)
}
