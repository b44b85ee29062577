package pdf

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/validation"
)

//go:embed guides.yaml
var guidesYAML []byte

// StatCallout is the headline number printed after the cover page.
type StatCallout struct {
	Number  string `yaml:"number" json:"number"`
	Label   string `yaml:"label" json:"label"`
	Context string `yaml:"context" json:"context"`
}

// Guide is one downloadable guide.
type Guide struct {
	Slug        string       `yaml:"slug" json:"slug"`
	Title       string       `yaml:"title" json:"title"`
	Subtitle    string       `yaml:"subtitle" json:"subtitle"`
	StatCallout *StatCallout `yaml:"statCallout,omitempty" json:"statCallout,omitempty"`
}

// GuideGroup is a list of guides sharing a theme industry. An empty industry
// leaves its guides out of the slug-to-industry map.
type GuideGroup struct {
	Name     string  `yaml:"name" json:"name"`
	Industry string  `yaml:"industry" json:"industry"`
	Guides   []Guide `yaml:"guides" json:"guides"`
}

// Catalog is the ordered guide list plus the slug-to-industry map derived from it.
type Catalog struct {
	groups     []GuideGroup
	guides     []Guide
	bySlug     map[string]Guide
	industries map[string]string
}

type catalogFile struct {
	Groups []GuideGroup `yaml:"groups"`
}

// DefaultCatalog returns the built-in guide catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(guidesYAML)
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode guide catalog: %w", err)
	}
	return NewCatalog(file.Groups)
}

// NewCatalog builds a catalog from groups in the order given.
func NewCatalog(groups []GuideGroup) (*Catalog, error) {
	c := &Catalog{
		groups:     groups,
		bySlug:     make(map[string]Guide),
		industries: make(map[string]string),
	}
	for _, g := range groups {
		if g.Industry != "" {
			if _, ok := ThemeFor(g.Industry); !ok {
				return nil, fmt.Errorf("guide group %q: no theme for industry %q", g.Name, g.Industry)
			}
		}
		for _, guide := range g.Guides {
			if !validation.ValidateSlug(guide.Slug) {
				return nil, fmt.Errorf("guide group %q: invalid slug %q", g.Name, guide.Slug)
			}
			if guide.Title == "" {
				return nil, fmt.Errorf("guide %q: title is required", guide.Slug)
			}
			if _, dup := c.bySlug[guide.Slug]; dup {
				return nil, fmt.Errorf("guide %q listed twice", guide.Slug)
			}
			c.bySlug[guide.Slug] = guide
			c.guides = append(c.guides, guide)
			if g.Industry != "" {
				c.industries[guide.Slug] = g.Industry
			}
		}
	}
	return c, nil
}

// Guides returns every guide in catalog order.
func (c *Catalog) Guides() []Guide {
	out := make([]Guide, len(c.guides))
	copy(out, c.guides)
	return out
}

// Groups returns the guide groups in file order. The slice is a copy, so
// callers may reorder it without touching the catalog.
func (c *Catalog) Groups() []GuideGroup {
	out := make([]GuideGroup, len(c.groups))
	copy(out, c.groups)
	return out
}

func (c *Catalog) Guide(slug string) (Guide, bool) {
	g, ok := c.bySlug[slug]
	return g, ok
}

// Industry returns the theme industry a guide maps to.
func (c *Catalog) Industry(slug string) (string, bool) {
	industry, ok := c.industries[slug]
	return industry, ok
}

// ThemeForGuide resolves a guide's theme. An unmapped slug is logged and
// yields nil; the caller picks its own fallback.
func (c *Catalog) ThemeForGuide(slug string, log logger.Logger) *Theme {
	industry, ok := c.industries[slug]
	if !ok {
		log.Warn("No industry mapping found for guide", map[string]interface{}{"slug": slug})
		return nil
	}
	theme, _ := ThemeFor(industry)
	return &theme
}
