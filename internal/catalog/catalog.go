package catalog

import (
	"embed"
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Tier groups algorithms on the landing page.
type Tier string

const (
	TierFoundational Tier = "foundational"
	TierAdvanced     Tier = "advanced"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Algorithm is one reference entry, addressed by its slug.
type Algorithm struct {
	Slug     string   `yaml:"slug" json:"slug"`
	Title    string   `yaml:"title" json:"title"`
	Tier     Tier     `yaml:"tier" json:"tier"`
	When     string   `yaml:"when" json:"when"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Examples []string `yaml:"examples" json:"examples"`
	Code     string   `yaml:"code" json:"code"`
}

type Hero struct {
	Headline string `yaml:"headline" json:"headline"`
	Tagline  string `yaml:"tagline" json:"tagline"`
}

type ApproachStep struct {
	Num   string `yaml:"num" json:"num"`
	Title string `yaml:"title" json:"title"`
	Desc  string `yaml:"desc" json:"desc"`
}

type TimelineEntry struct {
	Week  string `yaml:"week" json:"week"`
	Title string `yaml:"title" json:"title"`
	Desc  string `yaml:"desc" json:"desc"`
}

type Quote struct {
	Text   string `yaml:"text" json:"text"`
	Author string `yaml:"author" json:"author"`
}

// QuoteSet rotates through its quotes, showing each for Duration.
type QuoteSet struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	Quotes   []Quote       `yaml:"quotes"`
}

// Current returns the index and quote showing after elapsed time.
func (q QuoteSet) Current(elapsed time.Duration) (int, Quote) {
	if len(q.Quotes) == 0 {
		return 0, Quote{}
	}
	if elapsed < 0 || q.Duration <= 0 {
		return 0, q.Quotes[0]
	}
	idx := int((elapsed / q.Duration) % time.Duration(len(q.Quotes)))
	return idx, q.Quotes[idx]
}

type landingFile struct {
	Hero      Hero            `yaml:"hero"`
	Steps     []ApproachStep  `yaml:"steps"`
	Timeline  []TimelineEntry `yaml:"timeline"`
	QuoteSets []QuoteSet      `yaml:"quote_sets"`
}

// Catalog is the read-only content table. Safe for concurrent use.
type Catalog struct {
	hero       Hero
	algorithms []Algorithm
	steps      []ApproachStep
	timeline   []TimelineEntry
	quoteSets  []QuoteSet
	bySlug     map[string]int
}

// Load parses the content bundled into the binary.
func Load() (*Catalog, error) {
	algorithms, err := dataFS.ReadFile("data/algorithms.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read algorithms: %w", err)
	}
	landing, err := dataFS.ReadFile("data/landing.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read landing content: %w", err)
	}
	return Parse(algorithms, landing)
}

// Parse builds a catalog from raw YAML and validates it.
func Parse(algorithmsYAML, landingYAML []byte) (*Catalog, error) {
	var algorithms []Algorithm
	if err := yaml.Unmarshal(algorithmsYAML, &algorithms); err != nil {
		return nil, fmt.Errorf("failed to parse algorithms: %w", err)
	}
	var landing landingFile
	if err := yaml.Unmarshal(landingYAML, &landing); err != nil {
		return nil, fmt.Errorf("failed to parse landing content: %w", err)
	}

	c := &Catalog{
		hero:       landing.Hero,
		algorithms: algorithms,
		steps:      landing.Steps,
		timeline:   landing.Timeline,
		quoteSets:  landing.QuoteSets,
		bySlug:     make(map[string]int, len(algorithms)),
	}
	for i, algo := range algorithms {
		if !slugPattern.MatchString(algo.Slug) {
			return nil, fmt.Errorf("algorithm %d: invalid slug %q", i, algo.Slug)
		}
		if _, dup := c.bySlug[algo.Slug]; dup {
			return nil, fmt.Errorf("duplicate slug %q", algo.Slug)
		}
		if algo.Title == "" {
			return nil, fmt.Errorf("algorithm %q: title is required", algo.Slug)
		}
		if algo.Tier != TierFoundational && algo.Tier != TierAdvanced {
			return nil, fmt.Errorf("algorithm %q: unknown tier %q", algo.Slug, algo.Tier)
		}
		c.bySlug[algo.Slug] = i
	}
	for _, set := range landing.QuoteSets {
		if len(set.Quotes) == 0 {
			return nil, fmt.Errorf("quote set %q has no quotes", set.Name)
		}
		if set.Duration <= 0 {
			return nil, fmt.Errorf("quote set %q: duration must be positive", set.Name)
		}
	}
	return c, nil
}

// Lookup returns the algorithm for slug.
func (c *Catalog) Lookup(slug string) (Algorithm, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Algorithm{}, false
	}
	return c.algorithms[i], true
}

// Has reports whether slug names a catalog entry.
func (c *Catalog) Has(slug string) bool {
	_, ok := c.bySlug[slug]
	return ok
}

// Algorithms lists entries in catalog order. An empty tier lists all of them.
func (c *Catalog) Algorithms(tier Tier) []Algorithm {
	out := make([]Algorithm, 0, len(c.algorithms))
	for _, algo := range c.algorithms {
		if tier == "" || algo.Tier == tier {
			out = append(out, algo)
		}
	}
	return out
}

func (c *Catalog) Hero() Hero                { return c.hero }
func (c *Catalog) Steps() []ApproachStep     { return append([]ApproachStep(nil), c.steps...) }
func (c *Catalog) Timeline() []TimelineEntry { return append([]TimelineEntry(nil), c.timeline...) }
func (c *Catalog) QuoteSets() []QuoteSet     { return append([]QuoteSet(nil), c.quoteSets...) }
