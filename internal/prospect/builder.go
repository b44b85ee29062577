package prospect

import (
	"regexp"
	"strings"

	"prospect-composer/internal/templates"
)

// TemplateLookup resolves an industry key to a template. It must never fail.
type TemplateLookup interface {
	Lookup(industryKey string) templates.IndustryTemplate
}

// Builder composes prospect pages from templates.
type Builder struct {
	templates TemplateLookup
}

// NewBuilder returns a Builder over lookup, usually a *templates.Registry.
func NewBuilder(lookup TemplateLookup) *Builder {
	return &Builder{templates: lookup}
}

// Build resolves the prospect's template, applies its overrides and
// interpolates the three placeholder-bearing strings. It has no failure path.
func (b *Builder) Build(in Input) Page {
	tmpl := MergeOverrides(b.templates.Lookup(in.Industry), in.Overrides)

	shortName := ShortName(in.CompanyName)
	values := map[string]string{
		PlaceholderCompanyName:      in.CompanyName,
		PlaceholderCompanyShortName: shortName,
		PlaceholderCompanySize:      in.CompanySize,
	}

	recentNews := in.RecentNews
	if recentNews == nil {
		recentNews = []string{}
	}
	expiration := in.SoftExpirationDays
	if expiration <= 0 {
		expiration = DefaultSoftExpirationDays
	}

	return Page{
		Industry:            tmpl.Industry,
		IndustryDescriptor:  tmpl.IndustryDescriptor,
		CurrentTools:        tmpl.CurrentTools,
		CurrentStateNote:    tmpl.CurrentStateNote,
		GapHeadline:         tmpl.GapHeadline,
		ToolOptimizations:   tmpl.ToolOptimizations,
		GapSummary:          tmpl.GapSummary,
		FailedQueries:       tmpl.FailedQueries,
		GapConsequence:      tmpl.GapConsequence,
		Inefficiencies:      tmpl.Inefficiencies,
		OpportunityHeadline: tmpl.OpportunityHeadline,
		OpportunityIntro:    tmpl.OpportunityIntro,
		Benefits:            tmpl.Benefits,
		Differentiators:     tmpl.Differentiators,
		Comparison:          tmpl.Comparison,
		MathConclusion:      tmpl.MathConclusion,
		QuestionsIntro:      tmpl.QuestionsIntro,
		Questions:           tmpl.Questions,
		CTAIntro:            tmpl.CTAIntro,
		SearchQuery:         tmpl.SearchQuery,
		DMSName:             tmpl.DMSName,
		PracticeAreas:       tmpl.PracticeAreas,

		IntroHook:          Interpolate(tmpl.IntroHookTemplate, values),
		KeyInsight:         Interpolate(tmpl.KeyInsightTemplate, values),
		TotalCostStatement: Interpolate(tmpl.TotalCostStatementTemplate, values),

		Slug:               in.Slug,
		Password:           in.Password,
		CompanyName:        in.CompanyName,
		CompanyShortName:   shortName,
		CompanyLogo:        in.CompanyLogo,
		CompanySize:        in.CompanySize,
		CompanyLocation:    in.CompanyLocation,
		Leadership:         in.Leadership,
		RecentNews:         recentNews,
		ContactName:        in.ContactName,
		ContactTitle:       in.ContactTitle,
		ContactPhoto:       in.ContactPhoto,
		CreatedDate:        in.CreatedDate,
		SoftExpirationDays: expiration,
	}
}

// MergeOverrides replaces every template field the overrides set. Lists are
// replaced wholesale, never merged element by element.
func MergeOverrides(tmpl templates.IndustryTemplate, o *Overrides) templates.IndustryTemplate {
	if o == nil {
		return tmpl
	}

	setString(&tmpl.Industry, o.Industry)
	setString(&tmpl.IndustryDescriptor, o.IndustryDescriptor)
	setSlice(&tmpl.CurrentTools, o.CurrentTools)
	setString(&tmpl.CurrentStateNote, o.CurrentStateNote)
	setString(&tmpl.GapHeadline, o.GapHeadline)
	setSlice(&tmpl.ToolOptimizations, o.ToolOptimizations)
	setString(&tmpl.GapSummary, o.GapSummary)
	setSlice(&tmpl.FailedQueries, o.FailedQueries)
	setString(&tmpl.GapConsequence, o.GapConsequence)
	setSlice(&tmpl.Inefficiencies, o.Inefficiencies)
	setString(&tmpl.TotalCostStatementTemplate, o.TotalCostStatementTemplate)
	setString(&tmpl.OpportunityHeadline, o.OpportunityHeadline)
	setString(&tmpl.OpportunityIntro, o.OpportunityIntro)
	setSlice(&tmpl.Benefits, o.Benefits)
	setSlice(&tmpl.Differentiators, o.Differentiators)
	setSlice(&tmpl.Comparison, o.Comparison)
	setString(&tmpl.MathConclusion, o.MathConclusion)
	setString(&tmpl.QuestionsIntro, o.QuestionsIntro)
	setSlice(&tmpl.Questions, o.Questions)
	setString(&tmpl.CTAIntro, o.CTAIntro)
	setString(&tmpl.SearchQuery, o.SearchQuery)
	setString(&tmpl.DMSName, o.DMSName)
	setSlice(&tmpl.PracticeAreas, o.PracticeAreas)
	setString(&tmpl.IntroHookTemplate, o.IntroHookTemplate)
	setString(&tmpl.KeyInsightTemplate, o.KeyInsightTemplate)
	return tmpl
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setSlice[T any](dst *[]T, v []T) {
	if v != nil {
		out := make([]T, len(v))
		copy(out, v)
		*dst = out
	}
}

// ShortName is the first whitespace-separated word of the part of
// companyName before the first comma.
func ShortName(companyName string) string {
	beforeComma, _, _ := strings.Cut(companyName, ",")
	fields := strings.Fields(beforeComma)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

const (
	PlaceholderCompanyName      = "companyName"
	PlaceholderCompanyShortName = "companyShortName"
	PlaceholderCompanySize      = "companySize"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Interpolate substitutes {key} tokens for the known placeholder keys in one
// pass. Unknown tokens stay as written, braces included, and substituted
// values are not scanned again.
func Interpolate(tmpl string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[1 : len(token)-1]
		if !isKnownPlaceholder(key) {
			return token
		}
		if v, ok := values[key]; ok {
			return v
		}
		return token
	})
}

func isKnownPlaceholder(key string) bool {
	switch key {
	case PlaceholderCompanyName, PlaceholderCompanyShortName, PlaceholderCompanySize:
		return true
	}
	return false
}
