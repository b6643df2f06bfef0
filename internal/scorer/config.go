// Package scorer computes parcel suitability scores and energy impact estimates.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/model"
)

// Component names.
const (
	Social    = "Social"
	Technical = "Technical"
	Economic  = "Economic"
	Fairness  = "Fairness"
)

// Component is one entry of the scoring catalogue.
type Component struct {
	Name          string
	Column        string
	DefaultWeight float64
	Transform     func(float64) float64
}

// Catalogue is the ordered set of scoring components.
type Catalogue []Component

// DefaultCatalogue returns the four built-in components.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		{Name: Social, Column: model.ColFuelPoverty, DefaultWeight: 0.4, Transform: identity},
		{Name: Technical, Column: model.ColSolarIrradiance, DefaultWeight: 0.3, Transform: identity},
		{Name: Economic, Column: model.ColGridDistance, DefaultWeight: 0.2, Transform: gridProximity},
		{Name: Fairness, Column: model.ColExistingProjects, DefaultWeight: 0.1, Transform: fairness},
	}
}

func identity(v float64) float64 { return v }

// gridProximity favours parcels close to the grid; zero or negative distances score 0.
func gridProximity(v float64) float64 {
	if v > 0 {
		return 1000 / v
	}
	return 0
}

func fairness(v float64) float64 { return 5 - v }

// Lookup returns the component with the given name.
func (c Catalogue) Lookup(name string) (Component, bool) {
	for _, comp := range c {
		if comp.Name == name {
			return comp, true
		}
	}
	return Component{}, false
}

// Weights maps component name to an operator-chosen weight in [0,1].
type Weights map[string]float64

// DefaultWeights returns the catalogue's default weights.
func DefaultWeights(cat Catalogue) Weights {
	w := make(Weights, len(cat))
	for _, comp := range cat {
		w[comp.Name] = comp.DefaultWeight
	}
	return w
}

// WeightsFromConfig builds weights from the scoring config section.
func WeightsFromConfig(c config.ScoringConfig) Weights {
	return Weights{
		Social:    c.SocialWeight,
		Technical: c.TechnicalWeight,
		Economic:  c.EconomicWeight,
		Fairness:  c.FairnessWeight,
	}
}

// For returns the weight for a component, falling back to its default.
func (w Weights) For(comp Component) float64 {
	if v, ok := w[comp.Name]; ok {
		return v
	}
	return comp.DefaultWeight
}

// Validate checks that every weight is a finite value in [0,1] and names a
// known component.
func (w Weights) Validate(cat Catalogue) error {
	var errs []string

	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := w[name]
		if _, ok := cat.Lookup(name); !ok {
			errs = append(errs, fmt.Sprintf("unknown component %q", name))
			continue
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s weight must be between 0 and 1, got %v", strings.ToLower(name), v))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeWeights rescales the weights of active components so they sum to 1.
// Inactive components get 0. When the active weights sum to 0 every
// normalized weight is 0.
func NormalizeWeights(cat Catalogue, w Weights, active map[string]bool) map[string]float64 {
	out := make(map[string]float64, len(cat))

	var sum float64
	for _, comp := range cat {
		out[comp.Name] = 0
		if active[comp.Name] {
			sum += w.For(comp)
		}
	}
	if sum <= 0 {
		return out
	}

	for _, comp := range cat {
		if active[comp.Name] {
			out[comp.Name] = w.For(comp) / sum
		}
	}
	return out
}
