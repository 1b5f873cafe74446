// Package registry holds the closed competitor-to-extractor mapping the
// pipeline iterates. Adding a competitor means adding a registry entry and
// an extractor variant, never touching the orchestrator.
package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Extractor variant names. Each maps to one concrete extractor in
// internal/extract.
const (
	VariantMonthlyIndex = "monthly_index" // index page → month sub-pages → h3+p pairs
	VariantFlatNotes    = "flat_notes"    // single page, h2 period / h3 feature walk
)

// Competitor describes one scraped site.
type Competitor struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`

	// Variant selects the extractor implementation.
	Variant string `yaml:"variant"`

	// DeepScrape enables fetching the first detail link of each candidate
	// and appending its cleaned text to the classifier context.
	DeepScrape bool `yaml:"deep_scrape"`
}

// Registry is an ordered, closed set of competitors. Pipeline iteration
// order follows registry order.
type Registry struct {
	competitors []Competitor
	byName      map[string]Competitor
}

// Defaults returns the built-in competitor set.
func Defaults() []Competitor {
	return []Competitor{
		{
			Name:       "Braze",
			URL:        "https://www.braze.com/docs/help/release_notes/2025",
			Variant:    VariantMonthlyIndex,
			DeepScrape: true,
		},
		{
			Name:    "Iterable",
			URL:     "https://support.iterable.com/hc/en-us/articles/33302033277332-2025-Release-Notes",
			Variant: VariantFlatNotes,
		},
	}
}

// New builds a Registry from the given competitor list.
func New(competitors []Competitor) (*Registry, error) {
	if len(competitors) == 0 {
		return nil, eris.New("registry: no competitors configured")
	}

	byName := make(map[string]Competitor, len(competitors))
	for _, c := range competitors {
		if c.Name == "" || c.URL == "" {
			return nil, eris.Errorf("registry: competitor with missing name or url: %+v", c)
		}
		switch c.Variant {
		case VariantMonthlyIndex, VariantFlatNotes:
		default:
			return nil, eris.Errorf("registry: competitor %s: unknown variant %q", c.Name, c.Variant)
		}
		if _, dup := byName[c.Name]; dup {
			return nil, eris.Errorf("registry: duplicate competitor %s", c.Name)
		}
		byName[c.Name] = c
	}

	return &Registry{competitors: competitors, byName: byName}, nil
}

// LoadFromFile reads a competitor registry from a YAML file. An empty path
// yields the built-in defaults.
func LoadFromFile(path string) (*Registry, error) {
	if path == "" {
		return New(Defaults())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var doc struct {
		Competitors []Competitor `yaml:"competitors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	return New(doc.Competitors)
}

// All returns the competitors in registry order.
func (r *Registry) All() []Competitor {
	return r.competitors
}

// Get looks up a competitor by name.
func (r *Registry) Get(name string) (Competitor, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// DeepScrape reports whether the named competitor has deep scraping
// enabled. Unknown names report false.
func (r *Registry) DeepScrape(name string) bool {
	return r.byName[name].DeepScrape
}
