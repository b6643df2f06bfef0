package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/model"
)

func TestDefaultCatalogue(t *testing.T) {
	cat := DefaultCatalogue()
	require.Len(t, cat, 4)

	tests := []struct {
		name   string
		column string
		weight float64
	}{
		{Social, model.ColFuelPoverty, 0.4},
		{Technical, model.ColSolarIrradiance, 0.3},
		{Economic, model.ColGridDistance, 0.2},
		{Fairness, model.ColExistingProjects, 0.1},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.name, cat[i].Name)
		assert.Equal(t, tt.column, cat[i].Column)
		assert.InDelta(t, tt.weight, cat[i].DefaultWeight, 1e-9)
	}

	var sum float64
	for _, c := range cat {
		sum += c.DefaultWeight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTransforms(t *testing.T) {
	cat := DefaultCatalogue()
	get := func(name string) Component {
		c, ok := cat.Lookup(name)
		require.True(t, ok)
		return c
	}

	assert.InDelta(t, 0.7, get(Social).Transform(0.7), 1e-9)
	assert.InDelta(t, 4.5, get(Technical).Transform(4.5), 1e-9)
	assert.InDelta(t, 2.0, get(Economic).Transform(500), 1e-9)
	assert.InDelta(t, 3.0, get(Fairness).Transform(2), 1e-9)
	assert.InDelta(t, 7.0, get(Fairness).Transform(-2), 1e-9)
}

func TestGridProximity_ZeroDistance(t *testing.T) {
	assert.Zero(t, gridProximity(0))
	assert.Zero(t, gridProximity(-10))
	assert.False(t, math.IsInf(gridProximity(0), 0))
}

func TestCatalogueLookup_Unknown(t *testing.T) {
	_, ok := DefaultCatalogue().Lookup("Aesthetic")
	assert.False(t, ok)
}

func TestWeightsFromConfig(t *testing.T) {
	w := WeightsFromConfig(config.ScoringConfig{
		SocialWeight: 0.5, TechnicalWeight: 0.25, EconomicWeight: 0.15, FairnessWeight: 0.1,
	})
	assert.Equal(t, Weights{Social: 0.5, Technical: 0.25, Economic: 0.15, Fairness: 0.1}, w)
}

func TestWeightsFor_FallsBackToDefault(t *testing.T) {
	cat := DefaultCatalogue()
	w := Weights{Social: 0.9}

	social, _ := cat.Lookup(Social)
	fair, _ := cat.Lookup(Fairness)
	assert.InDelta(t, 0.9, w.For(social), 1e-9)
	assert.InDelta(t, 0.1, w.For(fair), 1e-9)
}

func TestWeightsValidate(t *testing.T) {
	cat := DefaultCatalogue()

	tests := []struct {
		name    string
		weights Weights
		wantErr string
	}{
		{"defaults", DefaultWeights(cat), ""},
		{"all zero", Weights{Social: 0, Technical: 0, Economic: 0, Fairness: 0}, ""},
		{"upper bound", Weights{Social: 1}, ""},
		{"negative", Weights{Social: -0.1}, "social weight must be between 0 and 1"},
		{"above one", Weights{Economic: 1.5}, "economic weight must be between 0 and 1"},
		{"nan", Weights{Technical: math.NaN()}, "technical weight"},
		{"unknown", Weights{"Aesthetic": 0.5}, `unknown component "Aesthetic"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate(cat)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeWeights_AllActive(t *testing.T) {
	cat := DefaultCatalogue()
	active := map[string]bool{Social: true, Technical: true, Economic: true, Fairness: true}

	got := NormalizeWeights(cat, Weights{Social: 0.8, Technical: 0.6, Economic: 0.4, Fairness: 0.2}, active)
	assert.InDelta(t, 0.4, got[Social], 1e-9)
	assert.InDelta(t, 0.3, got[Technical], 1e-9)
	assert.InDelta(t, 0.2, got[Economic], 1e-9)
	assert.InDelta(t, 0.1, got[Fairness], 1e-9)
}

func TestNormalizeWeights_InactiveExcluded(t *testing.T) {
	cat := DefaultCatalogue()
	active := map[string]bool{Social: true, Technical: true}

	got := NormalizeWeights(cat, DefaultWeights(cat), active)
	assert.InDelta(t, 0.4/0.7, got[Social], 1e-9)
	assert.InDelta(t, 0.3/0.7, got[Technical], 1e-9)
	assert.Zero(t, got[Economic])
	assert.Zero(t, got[Fairness])
}

func TestNormalizeWeights_ZeroSum(t *testing.T) {
	cat := DefaultCatalogue()

	got := NormalizeWeights(cat, Weights{Social: 0, Technical: 0, Economic: 0, Fairness: 0},
		map[string]bool{Social: true, Technical: true, Economic: true, Fairness: true})
	for _, v := range got {
		assert.Zero(t, v)
	}

	got = NormalizeWeights(cat, DefaultWeights(cat), map[string]bool{})
	require.Len(t, got, 4)
	for _, v := range got {
		assert.Zero(t, v)
	}
}

func TestNormalizeWeights_Property(t *testing.T) {
	cat := DefaultCatalogue()

	rapid.Check(t, func(t *rapid.T) {
		w := make(Weights, len(cat))
		active := make(map[string]bool, len(cat))
		var activeSum float64
		for _, comp := range cat {
			// Slider positions: multiples of 0.05 in [0,1].
			w[comp.Name] = float64(rapid.IntRange(0, 20).Draw(t, comp.Name+"_weight")) * 0.05
			active[comp.Name] = rapid.Bool().Draw(t, comp.Name+"_active")
			if active[comp.Name] {
				activeSum += w[comp.Name]
			}
		}

		got := NormalizeWeights(cat, w, active)

		var sum float64
		for _, comp := range cat {
			v := got[comp.Name]
			if v < 0 {
				t.Fatalf("negative normalized weight %v for %s", v, comp.Name)
			}
			if !active[comp.Name] && v != 0 {
				t.Fatalf("inactive component %s got weight %v", comp.Name, v)
			}
			sum += v
		}

		if activeSum > 0 {
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("normalized weights sum to %v, want 1", sum)
			}
		} else if sum != 0 {
			t.Fatalf("normalized weights sum to %v, want 0", sum)
		}
	})
}
