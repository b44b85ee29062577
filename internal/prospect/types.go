package prospect

import "prospect-composer/internal/templates"

// DefaultSoftExpirationDays applies when a prospect does not set its own window.
const DefaultSoftExpirationDays = 30

// Input is what an operator authors for one prospect.
type Input struct {
	Slug            string `yaml:"slug" json:"slug"`
	Password        string `yaml:"password" json:"password"`
	CompanyName     string `yaml:"companyName" json:"companyName"`
	Industry        string `yaml:"industry" json:"industry"`
	CompanySize     string `yaml:"companySize" json:"companySize"`
	CompanyLocation string `yaml:"companyLocation" json:"companyLocation"`
	ContactName     string `yaml:"contactName" json:"contactName"`

	CompanyLogo  string   `yaml:"companyLogo,omitempty" json:"companyLogo,omitempty"`
	ContactTitle string   `yaml:"contactTitle,omitempty" json:"contactTitle,omitempty"`
	ContactPhoto string   `yaml:"contactPhoto,omitempty" json:"contactPhoto,omitempty"`
	Leadership   string   `yaml:"leadership,omitempty" json:"leadership,omitempty"`
	RecentNews   []string `yaml:"recentNews,omitempty" json:"recentNews,omitempty"`

	Overrides *Overrides `yaml:"overrides,omitempty" json:"overrides,omitempty"`

	CreatedDate        string `yaml:"createdDate" json:"createdDate"`
	SoftExpirationDays int    `yaml:"softExpirationDays,omitempty" json:"softExpirationDays,omitempty"`
}

// Overrides replaces whole template fields for one prospect. A nil field keeps
// the template value; a non-nil one (even an empty list) replaces it outright.
type Overrides struct {
	Industry           *string `yaml:"industry,omitempty" json:"industry,omitempty"`
	IndustryDescriptor *string `yaml:"industryDescriptor,omitempty" json:"industryDescriptor,omitempty"`

	CurrentTools     []templates.ToolCategory `yaml:"currentTools,omitempty" json:"currentTools,omitempty"`
	CurrentStateNote *string                  `yaml:"currentStateNote,omitempty" json:"currentStateNote,omitempty"`

	GapHeadline       *string                      `yaml:"gapHeadline,omitempty" json:"gapHeadline,omitempty"`
	ToolOptimizations []templates.ToolOptimization `yaml:"toolOptimizations,omitempty" json:"toolOptimizations,omitempty"`
	GapSummary        *string                      `yaml:"gapSummary,omitempty" json:"gapSummary,omitempty"`
	FailedQueries     []templates.FailedQuery      `yaml:"failedQueries,omitempty" json:"failedQueries,omitempty"`
	GapConsequence    *string                      `yaml:"gapConsequence,omitempty" json:"gapConsequence,omitempty"`

	Inefficiencies             []templates.Inefficiency `yaml:"inefficiencies,omitempty" json:"inefficiencies,omitempty"`
	TotalCostStatementTemplate *string                  `yaml:"totalCostStatementTemplate,omitempty" json:"totalCostStatementTemplate,omitempty"`

	OpportunityHeadline *string                    `yaml:"opportunityHeadline,omitempty" json:"opportunityHeadline,omitempty"`
	OpportunityIntro    *string                    `yaml:"opportunityIntro,omitempty" json:"opportunityIntro,omitempty"`
	Benefits            []string                   `yaml:"benefits,omitempty" json:"benefits,omitempty"`
	Differentiators     []templates.Differentiator `yaml:"differentiators,omitempty" json:"differentiators,omitempty"`

	Comparison     []templates.ComparisonRow `yaml:"comparison,omitempty" json:"comparison,omitempty"`
	MathConclusion *string                   `yaml:"mathConclusion,omitempty" json:"mathConclusion,omitempty"`

	QuestionsIntro *string  `yaml:"questionsIntro,omitempty" json:"questionsIntro,omitempty"`
	Questions      []string `yaml:"questions,omitempty" json:"questions,omitempty"`

	CTAIntro *string `yaml:"ctaIntro,omitempty" json:"ctaIntro,omitempty"`

	SearchQuery   *string  `yaml:"searchQuery,omitempty" json:"searchQuery,omitempty"`
	DMSName       *string  `yaml:"dmsName,omitempty" json:"dmsName,omitempty"`
	PracticeAreas []string `yaml:"practiceAreas,omitempty" json:"practiceAreas,omitempty"`

	IntroHookTemplate  *string `yaml:"introHookTemplate,omitempty" json:"introHookTemplate,omitempty"`
	KeyInsightTemplate *string `yaml:"keyInsightTemplate,omitempty" json:"keyInsightTemplate,omitempty"`
}

// Page is the flattened content handed to the landing page renderer.
type Page struct {
	// template content
	Industry            string                       `json:"industry"`
	IndustryDescriptor  string                       `json:"industryDescriptor"`
	CurrentTools        []templates.ToolCategory     `json:"currentTools"`
	CurrentStateNote    string                       `json:"currentStateNote"`
	GapHeadline         string                       `json:"gapHeadline"`
	ToolOptimizations   []templates.ToolOptimization `json:"toolOptimizations"`
	GapSummary          string                       `json:"gapSummary"`
	FailedQueries       []templates.FailedQuery      `json:"failedQueries"`
	GapConsequence      string                       `json:"gapConsequence"`
	Inefficiencies      []templates.Inefficiency     `json:"inefficiencies"`
	OpportunityHeadline string                       `json:"opportunityHeadline"`
	OpportunityIntro    string                       `json:"opportunityIntro"`
	Benefits            []string                     `json:"benefits"`
	Differentiators     []templates.Differentiator   `json:"differentiators"`
	Comparison          []templates.ComparisonRow    `json:"comparison"`
	MathConclusion      string                       `json:"mathConclusion"`
	QuestionsIntro      string                       `json:"questionsIntro"`
	Questions           []string                     `json:"questions"`
	CTAIntro            string                       `json:"ctaIntro"`
	SearchQuery         string                       `json:"searchQuery"`
	DMSName             string                       `json:"dmsName"`
	PracticeAreas       []string                     `json:"practiceAreas"`

	// interpolated
	IntroHook          string `json:"introHook"`
	KeyInsight         string `json:"keyInsight"`
	TotalCostStatement string `json:"totalCostStatement"`

	// prospect
	Slug               string   `json:"slug"`
	Password           string   `json:"-"`
	CompanyName        string   `json:"companyName"`
	CompanyShortName   string   `json:"companyShortName"`
	CompanyLogo        string   `json:"companyLogo,omitempty"`
	CompanySize        string   `json:"companySize"`
	CompanyLocation    string   `json:"companyLocation"`
	Leadership         string   `json:"leadership,omitempty"`
	RecentNews         []string `json:"recentNews"`
	ContactName        string   `json:"contactName"`
	ContactTitle       string   `json:"contactTitle,omitempty"`
	ContactPhoto       string   `json:"contactPhoto,omitempty"`
	CreatedDate        string   `json:"createdDate"`
	SoftExpirationDays int      `json:"softExpirationDays"`
}
