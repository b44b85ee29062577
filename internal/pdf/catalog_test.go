package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"prospect-composer/internal/common/logger"
)

func createTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func createObservedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewZapAdapter(zap.New(core)), logs
}

func TestDefaultCatalog(t *testing.T) {
	c := createTestCatalog(t)

	guides := c.Guides()
	assert.Len(t, guides, 36)
	groups := c.Groups()
	assert.Len(t, groups, 7)
	first := groups[0].Name
	groups[0] = GuideGroup{Name: "changed"}
	assert.Equal(t, first, c.Groups()[0].Name, "Groups returns a copy")

	for _, g := range guides {
		industry, ok := c.Industry(g.Slug)
		assert.True(t, ok, g.Slug)
		_, themed := ThemeFor(industry)
		assert.True(t, themed, "%s maps to %s", g.Slug, industry)
	}
}

func TestThemeForGuide(t *testing.T) {
	c := createTestCatalog(t)
	log, logs := createObservedLogger()

	first := c.Guides()[0]
	theme := c.ThemeForGuide(first.Slug, log)
	require.NotNil(t, theme)
	industry, _ := c.Industry(first.Slug)
	assert.Equal(t, industry, theme.Industry)
	assert.Zero(t, logs.Len())

	assert.Nil(t, c.ThemeForGuide("not-a-guide", log))
	warnings := logs.FilterMessage("No industry mapping found for guide").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zap.WarnLevel, warnings[0].Level)
	assert.Equal(t, "not-a-guide", warnings[0].ContextMap()["slug"])
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "unknown theme industry",
			raw:  "groups:\n  - name: x\n    industry: retail\n    guides:\n      - {slug: a-guide, title: A}\n",
			want: "no theme",
		},
		{
			name: "bad slug",
			raw:  "groups:\n  - name: x\n    industry: legal\n    guides:\n      - {slug: A_Guide, title: A}\n",
			want: "invalid slug",
		},
		{
			name: "missing title",
			raw:  "groups:\n  - name: x\n    industry: legal\n    guides:\n      - {slug: a-guide}\n",
			want: "title is required",
		},
		{
			name: "duplicate slug",
			raw:  "groups:\n  - name: x\n    industry: legal\n    guides:\n      - {slug: a-guide, title: A}\n  - name: y\n    industry: cre\n    guides:\n      - {slug: a-guide, title: B}\n",
			want: "listed twice",
		},
		{
			name: "unknown field",
			raw:  "groups:\n  - name: x\n    colour: red\n",
			want: "decode guide catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCatalog_UnmappedGroup(t *testing.T) {
	raw := "groups:\n  - name: drafts\n    guides:\n      - {slug: draft-guide, title: Draft}\n"
	c, err := ParseCatalog([]byte(raw))
	require.NoError(t, err)

	_, ok := c.Guide("draft-guide")
	assert.True(t, ok)
	_, mapped := c.Industry("draft-guide")
	assert.False(t, mapped)

	log, logs := createObservedLogger()
	assert.Nil(t, c.ThemeForGuide("draft-guide", log))
	assert.Equal(t, 1, logs.Len())
}

func TestThemes(t *testing.T) {
	assert.Equal(t, []string{
		ThemeConstruction, ThemeCRE, ThemeDistribution, ThemeHealthcare, ThemeLegal, ThemeManufacturing,
	}, ThemeIndustries())

	legal, ok := ThemeFor(ThemeLegal)
	require.True(t, ok)
	assert.Equal(t, "#1E3A5F", legal.Accent)
	assert.Equal(t, "rgba(30, 58, 95, 0.1)", legal.AccentLight)
	assert.Equal(t, "linear-gradient(135deg, #1A9988 0%, #1E3A5F 100%)", legal.Gradient)

	for _, industry := range ThemeIndustries() {
		theme, _ := ThemeFor(industry)
		assert.Equal(t, BrandPrimary, theme.Primary)
	}

	_, ok = ThemeFor("general")
	assert.False(t, ok)
}

func TestPattern(t *testing.T) {
	for _, industry := range ThemeIndustries() {
		t.Run(industry, func(t *testing.T) {
			svg := Pattern(industry, "#123456")
			assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<svg"))
			assert.Contains(t, svg, "#123456")
			assert.NotContains(t, svg, "{{")
		})
	}
	assert.Empty(t, Pattern("retail", "#123456"))
}

func TestHeroIcon(t *testing.T) {
	c := createTestCatalog(t)

	for _, g := range c.Guides() {
		svg, found := HeroIcon(g.Slug, "#ABCDEF")
		assert.True(t, found, g.Slug)
		assert.Contains(t, svg, `style="color: #ABCDEF"`)
	}

	svg, found := HeroIcon("not-a-guide", "#ABCDEF")
	assert.False(t, found)
	assert.Contains(t, svg, "color: #ABCDEF")
	assert.NotContains(t, svg, "%COLOR%")
}

func TestSectionIconAndDiagram(t *testing.T) {
	names := SectionIconNames()
	require.NotEmpty(t, names)
	svg, found := SectionIcon(names[0], "red")
	assert.True(t, found)
	assert.Contains(t, svg, "color: red")

	_, found = SectionIcon("nope", "red")
	assert.False(t, found)

	slugs := DiagramSlugs()
	assert.Len(t, slugs, 28)
	c := createTestCatalog(t)
	for _, slug := range slugs {
		_, ok := c.Guide(slug)
		assert.True(t, ok, "diagram %s has no guide", slug)
		d, found := Diagram(slug)
		assert.True(t, found)
		assert.Contains(t, d, "<svg")
	}

	_, found = Diagram("not-a-guide")
	assert.False(t, found)
}
