package pdf

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed templates/guide.html.tmpl
var guideTemplateSource string

// guideTemplate uses text/template on purpose: every fragment is operator
// authored HTML or SVG and must land in the document verbatim.
var guideTemplate = template.Must(template.New("guide").Option("missingkey=error").Parse(guideTemplateSource))

// Document is everything the guide template needs. Content, HeroIcon, Diagram
// and GeometricPattern are trusted markup and are not escaped. Do not feed
// them user input.
type Document struct {
	Title            string
	Subtitle         string
	Content          string
	HeroIcon         string
	Diagram          string
	Theme            *Theme
	GeometricPattern string
	StatCallout      *StatCallout
}

// Compose renders doc into a complete HTML page. A nil theme uses DefaultTheme.
// The stat callout and diagram blocks are left out entirely when absent.
func Compose(doc Document) (string, error) {
	if doc.Theme == nil {
		theme := DefaultTheme
		doc.Theme = &theme
	}

	var b strings.Builder
	if err := guideTemplate.Execute(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}
