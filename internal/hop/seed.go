package hop

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Hops []seedHop `yaml:"hops"`
}

type seedHop struct {
	Name        string `yaml:"name"`
	Origin      string `yaml:"origin"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Alpha       struct {
		Low  *float64 `yaml:"low"`
		High *float64 `yaml:"high"`
	} `yaml:"alpha"`
}

// LoadSeed decodes a YAML catalog of the form
//
//	hops:
//	  - name: Cascade
//	    origin: USA
//	    type: aroma
//	    alpha: {low: 4.5, high: 7}
//
// into inputs. Entries are not validated here; the store does that on create.
func LoadSeed(r io.Reader) ([]Input, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return []Input{}, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	out := make([]Input, 0, len(f.Hops))
	for _, s := range f.Hops {
		out = append(out, Input{
			Name:        s.Name,
			Origin:      s.Origin,
			Type:        s.Type,
			Description: s.Description,
			AlphaLow:    FormatBound(s.Alpha.Low),
			AlphaHigh:   FormatBound(s.Alpha.High),
		})
	}
	return out, nil
}
