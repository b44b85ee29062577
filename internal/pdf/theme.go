package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Theme industries. These are PDF theme keys, not template registry keys:
// "distribution" covers the wholesale-distribution guides.
const (
	ThemeLegal         = "legal"
	ThemeHealthcare    = "healthcare"
	ThemeManufacturing = "manufacturing"
	ThemeCRE           = "cre"
	ThemeConstruction  = "construction"
	ThemeDistribution  = "distribution"
)

// BrandPrimary is shared by every theme.
const BrandPrimary = "#1A9988"

// Theme is the color bundle substituted into the guide stylesheet.
type Theme struct {
	Industry      string `json:"industry,omitempty"`
	Primary       string `json:"primary"`
	Accent        string `json:"accent"`
	AccentLight   string `json:"accentLight"`
	Gradient      string `json:"gradient"`
	GradientLight string `json:"gradientLight,omitempty"`
}

// DefaultTheme is what the composer falls back to when no theme is given.
var DefaultTheme = Theme{
	Primary:     BrandPrimary,
	Accent:      BrandPrimary,
	AccentLight: "rgba(26, 153, 136, 0.05)",
	Gradient:    "linear-gradient(135deg, #1A9988 0%, #15786a 100%)",
}

var industryAccents = map[string]string{
	ThemeLegal:         "#1E3A5F",
	ThemeHealthcare:    "#2563EB",
	ThemeManufacturing: "#EA580C",
	ThemeCRE:           "#7C3AED",
	ThemeConstruction:  "#D97706",
	ThemeDistribution:  "#059669",
}

var themes = buildThemes()

func buildThemes() map[string]Theme {
	out := make(map[string]Theme, len(industryAccents))
	for industry, accent := range industryAccents {
		out[industry] = newTheme(industry, accent)
	}
	return out
}

func newTheme(industry, accent string) Theme {
	primaryRGB := mustRGB(BrandPrimary)
	accentRGB := mustRGB(accent)
	gradientLight := fmt.Sprintf("linear-gradient(135deg, rgba(%s, 0.08) 0%%, rgba(%s, 0.08) 100%%)",
		primaryRGB, accentRGB)

	return Theme{
		Industry:      industry,
		Primary:       BrandPrimary,
		Accent:        accent,
		AccentLight:   fmt.Sprintf("rgba(%s, 0.1)", accentRGB),
		Gradient:      fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 100%%)", BrandPrimary, accent),
		GradientLight: gradientLight,
	}
}

// ThemeFor returns the theme for an industry key.
func ThemeFor(industry string) (Theme, bool) {
	t, ok := themes[industry]
	return t, ok
}

// ThemeIndustries lists the industries that have a theme.
func ThemeIndustries() []string {
	keys := make([]string, 0, len(themes))
	for k := range themes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mustRGB turns "#1E3A5F" into "30, 58, 95". Only used on the constants above.
func mustRGB(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		panic(fmt.Sprintf("invalid hex color %q", hex))
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		panic(fmt.Sprintf("invalid hex color %q", hex))
	}
	return fmt.Sprintf("%d, %d, %d", v>>16&0xff, v>>8&0xff, v&0xff)
}
