package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile is a named weight set stored as YAML, e.g.
//
//	name: social-first
//	weights:
//	  Social: 0.7
//	  Technical: 0.3
//	only_available: false
type Profile struct {
	Name          string             `yaml:"name"`
	Weights       map[string]float64 `yaml:"weights"`
	OnlyAvailable *bool              `yaml:"only_available,omitempty"`
}

// LoadProfile reads and validates a weight profile. Components the profile
// omits keep their catalogue defaults.
func LoadProfile(path string, cat Catalogue) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read profile %s", path)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse profile %s", path)
	}
	if err := Weights(p.Weights).Validate(cat); err != nil {
		return nil, eris.Wrapf(err, "scorer: profile %s", path)
	}
	return &p, nil
}

// Apply overlays the profile's weights on base and returns the result.
func (p *Profile) Apply(base Weights) Weights {
	out := make(Weights, len(base)+len(p.Weights))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range p.Weights {
		out[k] = v
	}
	return out
}
