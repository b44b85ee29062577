package pdf

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"
)

//go:embed assets/patterns/*.svg.tmpl assets/icons/hero/*.svg assets/icons/section/*.svg assets/diagrams/*.svg
var assetsFS embed.FS

var patternTemplates = template.Must(template.ParseFS(assetsFS, "assets/patterns/*.svg.tmpl"))

// Pattern returns the decorative cover pattern for an industry with the accent
// color applied, or "" for an industry without one.
func Pattern(industry, accent string) string {
	tmpl := patternTemplates.Lookup(industry + ".svg.tmpl")
	if tmpl == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Accent string }{accent}); err != nil {
		return ""
	}
	return buf.String()
}

const defaultHeroIcon = `<svg viewBox="0 0 80 80" fill="none" xmlns="http://www.w3.org/2000/svg" style="color: %COLOR%">
  <path d="M16 8h32l16 16v48c0 2-2 4-4 4H20c-2 0-4-2-4-4V12c0-2 2-4 4-4z" stroke="currentColor" stroke-width="3" fill="none"/>
  <path d="M48 8v12c0 2 2 4 4 4h12" stroke="currentColor" stroke-width="3" fill="none"/>
  <path d="M24 36h32m-32 10h24m-24 10h28" stroke="currentColor" stroke-width="2.5" stroke-linecap="round"/>
</svg>`

const defaultSectionIcon = `<svg viewBox="0 0 24 24" fill="none" xmlns="http://www.w3.org/2000/svg" style="color: %COLOR%">
  <circle cx="12" cy="12" r="6" fill="currentColor"/>
</svg>`

// HeroIcon returns the cover icon for a guide tinted with color. Guides
// without their own icon get a generic document icon; found reports which.
func HeroIcon(slug, color string) (svg string, found bool) {
	raw, err := assetsFS.ReadFile(path.Join("assets/icons/hero", slug+".svg"))
	if err != nil {
		return strings.Replace(defaultHeroIcon, "%COLOR%", color, 1), false
	}
	return tint(string(raw), color), true
}

// SectionIcon returns a small inline icon for use inside guide content.
func SectionIcon(name, color string) (svg string, found bool) {
	raw, err := assetsFS.ReadFile(path.Join("assets/icons/section", name+".svg"))
	if err != nil {
		return strings.Replace(defaultSectionIcon, "%COLOR%", color, 1), false
	}
	return tint(string(raw), color), true
}

// SectionIconNames lists the available section icons.
func SectionIconNames() []string {
	return listNames("assets/icons/section", ".svg")
}

// Diagram returns the explanatory diagram for a guide, if it has one.
func Diagram(slug string) (string, bool) {
	raw, err := assetsFS.ReadFile(path.Join("assets/diagrams", slug+".svg"))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// DiagramSlugs lists guides that have a diagram.
func DiagramSlugs() []string {
	return listNames("assets/diagrams", ".svg")
}

// tint sets the color the icon's currentColor strokes resolve to.
func tint(svg, color string) string {
	return strings.Replace(svg, "<svg", `<svg style="color: `+color+`"`, 1)
}

func listNames(dir, ext string) []string {
	entries, err := fs.ReadDir(assetsFS, dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ext) {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names
}
