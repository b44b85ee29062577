package templates

// Industry keys. General is a complete template but is only served when it is the configured fallback.
const (
	IndustryLegal                 = "legal"
	IndustryHealthcare            = "healthcare"
	IndustryDental                = "dental"
	IndustryManufacturing         = "manufacturing"
	IndustryCRE                   = "cre"
	IndustryAccounting            = "accounting"
	IndustryConstruction          = "construction"
	IndustryWholesaleDistribution = "wholesale-distribution"
	IndustryGeneral               = "general"
)

type ToolCategory struct {
	Category string `yaml:"category" json:"category"`
	Tools    string `yaml:"tools" json:"tools"`
}

type ToolOptimization struct {
	Tool         string `yaml:"tool" json:"tool"`
	OptimizesFor string `yaml:"optimizesFor" json:"optimizesFor"`
}

type FailedQuery struct {
	Query    string `yaml:"query" json:"query"`
	WhyFails string `yaml:"whyFails" json:"whyFails"`
}

type Inefficiency struct {
	Issue  string `yaml:"issue" json:"issue"`
	Impact string `yaml:"impact" json:"impact"`
}

type Differentiator struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type ComparisonRow struct {
	Metric      string `yaml:"metric" json:"metric"`
	Traditional string `yaml:"traditional" json:"traditional"`
	NewApproach string `yaml:"newApproach" json:"newApproach"`
}

// IndustryTemplate is the marketing copy shared by every prospect in one industry.
// All fields are required.
type IndustryTemplate struct {
	Industry           string `yaml:"industry" json:"industry"`
	IndustryDescriptor string `yaml:"industryDescriptor" json:"industryDescriptor"`

	CurrentTools     []ToolCategory `yaml:"currentTools" json:"currentTools"`
	CurrentStateNote string         `yaml:"currentStateNote" json:"currentStateNote"`

	GapHeadline       string             `yaml:"gapHeadline" json:"gapHeadline"`
	ToolOptimizations []ToolOptimization `yaml:"toolOptimizations" json:"toolOptimizations"`
	GapSummary        string             `yaml:"gapSummary" json:"gapSummary"`
	FailedQueries     []FailedQuery      `yaml:"failedQueries" json:"failedQueries"`
	GapConsequence    string             `yaml:"gapConsequence" json:"gapConsequence"`

	Inefficiencies             []Inefficiency `yaml:"inefficiencies" json:"inefficiencies"`
	TotalCostStatementTemplate string         `yaml:"totalCostStatementTemplate" json:"totalCostStatementTemplate"`

	OpportunityHeadline string           `yaml:"opportunityHeadline" json:"opportunityHeadline"`
	OpportunityIntro    string           `yaml:"opportunityIntro" json:"opportunityIntro"`
	Benefits            []string         `yaml:"benefits" json:"benefits"`
	Differentiators     []Differentiator `yaml:"differentiators" json:"differentiators"`

	Comparison     []ComparisonRow `yaml:"comparison" json:"comparison"`
	MathConclusion string          `yaml:"mathConclusion" json:"mathConclusion"`

	QuestionsIntro string   `yaml:"questionsIntro" json:"questionsIntro"`
	Questions      []string `yaml:"questions" json:"questions"`

	CTAIntro string `yaml:"ctaIntro" json:"ctaIntro"`

	SearchQuery   string   `yaml:"searchQuery" json:"searchQuery"`
	DMSName       string   `yaml:"dmsName" json:"dmsName"`
	PracticeAreas []string `yaml:"practiceAreas" json:"practiceAreas"`

	// {companyName} and {companyShortName} placeholders
	IntroHookTemplate  string `yaml:"introHookTemplate" json:"introHookTemplate"`
	KeyInsightTemplate string `yaml:"keyInsightTemplate" json:"keyInsightTemplate"`
}

// Clone returns a copy that shares no slices with t.
func (t IndustryTemplate) Clone() IndustryTemplate {
	c := t
	c.CurrentTools = cloneSlice(t.CurrentTools)
	c.ToolOptimizations = cloneSlice(t.ToolOptimizations)
	c.FailedQueries = cloneSlice(t.FailedQueries)
	c.Inefficiencies = cloneSlice(t.Inefficiencies)
	c.Benefits = cloneSlice(t.Benefits)
	c.Differentiators = cloneSlice(t.Differentiators)
	c.Comparison = cloneSlice(t.Comparison)
	c.Questions = cloneSlice(t.Questions)
	c.PracticeAreas = cloneSlice(t.PracticeAreas)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
