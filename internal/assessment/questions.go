package assessment

// Category groups scored questions into a sub-score.
type Category string

const (
	PortfolioVisibility Category = "portfolioVisibility"
	InvestorReporting   Category = "investorReporting"
)

// CategoryLabels are the display names of the two sub-scores.
var CategoryLabels = map[Category]string{
	PortfolioVisibility: "Portfolio Visibility",
	InvestorReporting:   "Investor Reporting",
}

type Option struct {
	Value       int    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is one multiple-choice item. Unscored questions are asked and feed
// insights but do not count toward either sub-score.
type Question struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
	Scored   bool     `json:"scored"`
}

// Question ids referenced by the insight rules.
const (
	QuestionPMSystems         = "pm-systems"
	QuestionUnifiedView       = "unified-view"
	QuestionNOITracking       = "noi-tracking"
	QuestionAdHocQuestions    = "ad-hoc-questions"
	QuestionReportingTime     = "reporting-time"
	QuestionReportConfidence  = "report-confidence"
	QuestionSelfService       = "self-service"
	QuestionBenchmarking      = "benchmarking"
	QuestionCAMReconciliation = "cam-reconciliation"
	QuestionDebtVisibility    = "debt-visibility"
)

// MaxPerQuestion is the best answer's value on every question.
const MaxPerQuestion = 7

var Questions = []Question{
	{
		ID:       QuestionPMSystems,
		Category: PortfolioVisibility,
		Scored:   true,
		Question: "How many different property management systems are in use across your portfolio?",
		Options: []Option{
			{7, "1 system (standardized)", "Single PM system across all properties"},
			{4, "2-3 systems", "A few systems requiring some consolidation"},
			{1, "4+ systems", "Multiple systems across properties"},
			{0, "Don't know / varies", "Each property may use different systems"},
		},
	},
	{
		ID:       QuestionUnifiedView,
		Category: PortfolioVisibility,
		Scored:   true,
		Question: "How long does it take to get a unified view of occupancy across all properties?",
		Options: []Option{
			{7, "Minutes (automated dashboard)", "Real-time visibility across portfolio"},
			{4, "Hours (some manual work)", "Quick consolidation with minor effort"},
			{2, "Days (significant manual consolidation)", "Requires pulling from multiple sources"},
			{0, "We can't get a unified view easily", "No consolidated view available"},
		},
	},
	{
		ID:       QuestionNOITracking,
		Category: PortfolioVisibility,
		Scored:   true,
		Question: "How do you currently track portfolio-wide NOI?",
		Options: []Option{
			{7, "Real-time dashboard updated automatically", "Automated NOI tracking"},
			{4, "Monthly spreadsheet consolidation", "Regular manual process"},
			{2, "Quarterly manual process", "Periodic consolidation"},
			{0, "We don't track portfolio-wide NOI", "Property-by-property only"},
		},
	},
	{
		ID:       QuestionAdHocQuestions,
		Category: PortfolioVisibility,
		Scored:   true,
		Question: "When an investor asks an unexpected portfolio question, how long does it take to answer?",
		Options: []Option{
			{7, "Minutes (data is accessible)", "Information at your fingertips"},
			{4, "Hours (requires some digging)", "Needs some research"},
			{2, "Days (requires manual research)", "Significant effort required"},
			{0, "Often can't answer definitively", "Data not readily available"},
		},
	},
	{
		ID:       QuestionReportingTime,
		Category: InvestorReporting,
		Scored:   true,
		Question: "How long does quarterly investor reporting take?",
		Options: []Option{
			{7, "Less than a day (mostly automated)", "Streamlined reporting process"},
			{5, "1-3 days", "Manageable with some manual work"},
			{2, "1-2 weeks", "Significant time investment"},
			{0, "2+ weeks", "Major quarterly effort"},
		},
	},
	{
		ID:       QuestionReportConfidence,
		Category: InvestorReporting,
		Scored:   true,
		Question: "How confident are you in investor report accuracy?",
		Options: []Option{
			{7, "Very confident (data is verified automatically)", "Automated validation"},
			{4, "Somewhat confident (occasional errors found)", "Generally reliable"},
			{2, "Not very confident (often find issues after sending)", "Post-delivery corrections common"},
			{0, "We frequently catch errors", "Accuracy is a known concern"},
		},
	},
	{
		ID:       QuestionSelfService,
		Category: InvestorReporting,
		Scored:   true,
		Question: "Do investors have self-service access to portfolio data?",
		Options: []Option{
			{7, "Yes, real-time investor portal", "24/7 access to current data"},
			{4, "Partially (some reports available)", "Limited self-service"},
			{1, "No, all reporting is push-based", "Investors rely on you for updates"},
			{0, "Investors have asked for it but we don't offer it", "Unmet demand"},
		},
	},
	{
		ID:       QuestionBenchmarking,
		Category: InvestorReporting,
		Scored:   true,
		Question: "Can you easily benchmark property performance against each other?",
		Options: []Option{
			{7, "Yes, standardized metrics across portfolio", "Apples-to-apples comparison"},
			{4, "Partially (some properties, some metrics)", "Limited comparison capability"},
			{2, "Difficult due to different systems/formats", "Data inconsistencies"},
			{0, "No, each property is tracked separately", "No cross-property view"},
		},
	},
	{
		ID:       QuestionCAMReconciliation,
		Category: PortfolioVisibility,
		Question: "How confident are you in your CAM reconciliation accuracy?",
		Options: []Option{
			{7, "Very confident", "Systematic process with high accuracy"},
			{4, "Mostly confident", "Occasional issues but generally accurate"},
			{2, "Uncertain", "We do our best but errors slip through"},
			{0, "Often disputed", "Tenants challenge CAM regularly"},
		},
	},
	{
		ID:       QuestionDebtVisibility,
		Category: PortfolioVisibility,
		Question: "How well do you track loan maturities across your portfolio?",
		Options: []Option{
			{7, "Automated visibility", "Real-time tracking across portfolio"},
			{4, "Centralized but manual", "One view but updated manually"},
			{2, "Spreadsheet somewhere", "We have it but it's not centralized"},
			{0, "Property by property", "Each property manager tracks their own"},
		},
	},
}

// Profile answers. These are not scored.
var (
	PropertyCounts    = []string{"1-5", "6-15", "16-30", "30+"}
	PropertyTypes     = []string{"multifamily", "office", "retail", "industrial", "mixed-use", "other"}
	ExternalInvestors = []string{"institutional", "family-office", "occasional", "none"}
)

var questionsByID = func() map[string]Question {
	m := make(map[string]Question, len(Questions))
	for _, q := range Questions {
		m[q.ID] = q
	}
	return m
}()

// QuestionByID looks up a question.
func QuestionByID(id string) (Question, bool) {
	q, ok := questionsByID[id]
	return q, ok
}

// MaxCategoryScore is the best possible sub-score for a category.
func MaxCategoryScore(c Category) int {
	n := 0
	for _, q := range Questions {
		if q.Scored && q.Category == c {
			n++
		}
	}
	return n * MaxPerQuestion
}

// MaxTotal is the best possible total across both sub-scores.
func MaxTotal() int {
	return MaxCategoryScore(PortfolioVisibility) + MaxCategoryScore(InvestorReporting)
}
