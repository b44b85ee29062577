package assessment

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	apperrors "prospect-composer/internal/common/errors"
)

type Tier string

const (
	TierMature           Tier = "mature"
	TierGrowingPains     Tier = "growingPains"
	TierFoundationNeeded Tier = "foundationNeeded"
	TierSignificantGaps  Tier = "significantGaps"
)

// Tier thresholds on the total score.
const (
	matureThreshold     = 42
	growingThreshold    = 28
	foundationThreshold = 14
)

// Answers maps question id to the chosen option value.
type Answers map[string]int

type Profile struct {
	CompanyName       string   `json:"companyName,omitempty"`
	PropertyCount     string   `json:"propertyCount"`
	PropertyTypes     []string `json:"propertyTypes"`
	ExternalInvestors string   `json:"externalInvestors"`
}

type Scores struct {
	PortfolioVisibility        int      `json:"portfolioVisibility"`
	InvestorReporting          int      `json:"investorReporting"`
	Total                      int      `json:"total"`
	MaxTotal                   int      `json:"maxTotal"`
	PortfolioVisibilityPercent int      `json:"portfolioVisibilityPercent"`
	InvestorReportingPercent   int      `json:"investorReportingPercent"`
	TotalPercent               int      `json:"totalPercent"`
	Tier                       Tier     `json:"tier"`
	LowestCategory             Category `json:"lowestCategory"`
	Insights                   []string `json:"dynamicInsights"`
	Recommendations            []string `json:"recommendations"`
}

// Validate checks that every scored question is answered with one of its
// option values, that unscored answers are valid when present, and that the
// profile uses known values.
func Validate(answers Answers, profile Profile) error {
	var problems []string

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		q, ok := QuestionByID(id)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown question %q", id))
			continue
		}
		if !hasOption(q, answers[id]) {
			problems = append(problems, fmt.Sprintf("%s: %d is not an option", id, answers[id]))
		}
	}
	for _, q := range Questions {
		if _, ok := answers[q.ID]; q.Scored && !ok {
			problems = append(problems, fmt.Sprintf("%s: answer required", q.ID))
		}
	}

	if !slices.Contains(PropertyCounts, profile.PropertyCount) {
		problems = append(problems, fmt.Sprintf("propertyCount: invalid value %q", profile.PropertyCount))
	}
	if len(profile.PropertyTypes) == 0 {
		problems = append(problems, "propertyTypes: at least one required")
	}
	for _, t := range profile.PropertyTypes {
		if !slices.Contains(PropertyTypes, t) {
			problems = append(problems, fmt.Sprintf("propertyTypes: invalid value %q", t))
		}
	}
	if !slices.Contains(ExternalInvestors, profile.ExternalInvestors) {
		problems = append(problems, fmt.Sprintf("externalInvestors: invalid value %q", profile.ExternalInvestors))
	}

	if len(problems) > 0 {
		return apperrors.NewAssessmentInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// Score validates and scores a completed assessment.
func Score(answers Answers, profile Profile) (Scores, error) {
	if err := Validate(answers, profile); err != nil {
		return Scores{}, err
	}

	sub := map[Category]int{}
	for _, q := range Questions {
		if q.Scored {
			sub[q.Category] += answers[q.ID]
		}
	}

	pv, ir := sub[PortfolioVisibility], sub[InvestorReporting]
	s := Scores{
		PortfolioVisibility:        pv,
		InvestorReporting:          ir,
		Total:                      pv + ir,
		MaxTotal:                   MaxTotal(),
		PortfolioVisibilityPercent: percent(pv, MaxCategoryScore(PortfolioVisibility)),
		InvestorReportingPercent:   percent(ir, MaxCategoryScore(InvestorReporting)),
		LowestCategory:             InvestorReporting,
	}
	s.TotalPercent = percent(s.Total, s.MaxTotal)
	s.Tier = TierFor(s.Total)
	if pv <= ir {
		s.LowestCategory = PortfolioVisibility
	}
	s.Insights = insights(answers, profile)
	s.Recommendations = recommendations(answers, pv, ir)
	return s, nil
}

// TierFor maps a total score to its tier.
func TierFor(total int) Tier {
	switch {
	case total >= matureThreshold:
		return TierMature
	case total >= growingThreshold:
		return TierGrowingPains
	case total >= foundationThreshold:
		return TierFoundationNeeded
	default:
		return TierSignificantGaps
	}
}

func hasOption(q Question, value int) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func percent(score, outOf int) int {
	if outOf == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(outOf) * 100))
}

// answeredAtMost is false for an unanswered question.
func answeredAtMost(answers Answers, id string, limit int) bool {
	v, ok := answers[id]
	return ok && v <= limit
}

func answeredOneOf(answers Answers, id string, values ...int) bool {
	v, ok := answers[id]
	return ok && slices.Contains(values, v)
}

func insights(answers Answers, profile Profile) []string {
	out := []string{}
	if answeredOneOf(answers, QuestionPMSystems, 1, 0) {
		out = append(out, "With 4+ property management systems, consolidation is always painful. The solution isn't necessarily migrating everything. A data layer that sits above your existing systems can unify reporting without forcing PM changes.")
	}
	if answeredOneOf(answers, QuestionUnifiedView, 2, 0) {
		out = append(out, "Getting a unified view shouldn't take days. When data lives in multiple systems, the manual work compounds. An automated data layer eliminates the consolidation step entirely.")
	}
	if answeredOneOf(answers, QuestionNOITracking, 2) {
		out = append(out, "Quarterly NOI tracking means you're always looking backward. Decisions get made on stale data. Real-time visibility changes what's possible.")
	}
	if answeredOneOf(answers, QuestionReportingTime, 0) {
		out = append(out, "Two-plus weeks for quarterly reporting is common but painful. The irony: most of the data exists. It's just scattered. Automated reporting isn't about new data. It's about connecting what you already have.")
	}
	if answeredOneOf(answers, QuestionSelfService, 1, 0) {
		out = append(out, "Investor self-service is increasingly expected, especially from institutional LPs. It also reduces your reporting burden. Win-win when done right.")
	}
	if profile.ExternalInvestors == "institutional" {
		out = append(out, "With institutional LPs, reporting expectations are high. The firms that look polished gain trust and attract more capital. The ones sending manually-compiled spreadsheets look behind.")
	}
	if answeredAtMost(answers, QuestionCAMReconciliation, 2) {
		out = append(out, "Property managers lose 5-15% of recoverable expenses to CAM reconciliation errors. Nobody catches them until tenants dispute. Automated CAM reconciliation pays for itself in recovered expenses.")
	}
	if answeredAtMost(answers, QuestionDebtVisibility, 2) {
		out = append(out, "$957B in CRE loans mature in 2025. That's nearly triple the 20-year average. If you're not tracking loan maturities across your portfolio, you could be caught off guard by refinancing pressure.")
	}
	return out
}

func recommendations(answers Answers, pv, ir int) []string {
	if pv >= ir {
		return []string{
			"Focus on streamlining investor reporting processes",
			"Explore investor portal solutions for self-service access",
			"Standardize metrics across properties for easier benchmarking",
		}
	}
	out := []string{
		"Prioritize building unified portfolio visibility before enhancing reporting",
		"Consider a data integration layer to connect disparate PM systems",
		"Implement automated dashboards for key operational metrics",
	}
	if answeredAtMost(answers, QuestionCAMReconciliation, 2) {
		out = append(out, "Address CAM reconciliation accuracy (5-15% of recoverable expenses at stake)")
	}
	if answeredAtMost(answers, QuestionDebtVisibility, 2) {
		out = append(out, "Build centralized loan maturity tracking across all properties")
	}
	return out
}
