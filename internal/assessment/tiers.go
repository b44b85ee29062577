package assessment

type TierDescription struct {
	Title                   string   `json:"title"`
	Description             string   `json:"description"`
	Opportunity             string   `json:"opportunity"`
	RecommendedConversation string   `json:"recommendedConversation"`
	NextSteps               []string `json:"nextSteps"`
}

var tierDescriptions = map[Tier]TierDescription{
	TierMature: {
		Title:                   "Mature Portfolio Analytics",
		Description:             "Your portfolio analytics are in solid shape. You have visibility across properties, reporting is manageable, and data is reasonably connected.",
		Opportunity:             "At this stage, the opportunity is optimization: automating what's still manual, adding predictive capabilities, or building investor-facing dashboards that update themselves.",
		RecommendedConversation: "Advanced analytics, automation, or retainer relationship.",
		NextSteps: []string{
			"Explore predictive analytics for portfolio performance",
			"Consider automated investor dashboards",
			"Evaluate opportunities for process automation",
		},
	},
	TierGrowingPains: {
		Title:                   "Growing Pains",
		Description:             "You're in the middle. Better than spreadsheets, but not quite where you need to be.",
		Opportunity:             "Targeted work on your biggest gaps would have outsized impact. The good news: you have foundation to build on.",
		RecommendedConversation: "Portfolio Analytics or Investor Reporting engagement to address specific gaps.",
		NextSteps: []string{
			"Address your lowest-scoring category first",
			"Consolidate data sources for unified visibility",
			"Streamline your reporting workflow",
		},
	},
	TierFoundationNeeded: {
		Title:                   "Data Foundation Needed",
		Description:             "Your systems are disconnected and visibility is limited. Before advanced analytics, you need foundation work: connecting systems, standardizing data, creating a single source of truth.",
		Opportunity:             "This isn't a criticism. Most property managers in growth mode hit this wall. You've outgrown spreadsheets but haven't built what comes next. You're also probably losing 5-15% of CAM recoveries to errors you don't catch.",
		RecommendedConversation: "Data Foundation engagement before analytics work.",
		NextSteps: []string{
			"Audit and document current data sources",
			"Prioritize system integration opportunities",
			"Address CAM reconciliation accuracy",
			"Establish data governance standards",
		},
	},
	TierSignificantGaps: {
		Title:                   "Significant Gaps",
		Description:             "There's significant opportunity to improve, but foundational work comes first. Multiple PM systems with no integration, manual everything, and limited visibility are common at your stage.",
		Opportunity:             "The good news: fixing this isn't as expensive as you might think. Modern tools and approaches make building a data foundation accessible. And with $957B in CRE loans maturing in 2025, visibility into your debt situation isn't optional.",
		RecommendedConversation: "Discovery call to understand your specific situation.",
		NextSteps: []string{
			"Start with a data audit to understand current state",
			"Identify quick wins for immediate improvement (CAM reconciliation often has fastest ROI)",
			"Build a phased roadmap for data modernization",
		},
	},
}

// Describe returns the copy shown for a tier.
func Describe(t Tier) (TierDescription, bool) {
	d, ok := tierDescriptions[t]
	if !ok {
		return TierDescription{}, false
	}
	d.NextSteps = append([]string(nil), d.NextSteps...)
	return d, true
}

// Readiness tiers reported by the legal, healthcare, manufacturing and
// general readiness assessments. They are scored before the lead reaches
// this service; only the tier name arrives.
const (
	ReadinessEarly      Tier = "early"
	ReadinessEmerging   Tier = "emerging"
	ReadinessDeveloping Tier = "developing"
	ReadinessAdvanced   Tier = "advanced"
)

// NeedsFoundation reports whether a tier points at foundational data work.
// Lead tiering uses it to prioritise follow-up.
func (t Tier) NeedsFoundation() bool {
	switch t {
	case TierSignificantGaps, TierFoundationNeeded, ReadinessEarly, ReadinessEmerging:
		return true
	}
	return false
}
