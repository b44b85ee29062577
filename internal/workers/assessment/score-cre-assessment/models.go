package scorecreassessment

import "prospect-composer/internal/assessment"

type Input struct {
	Answers assessment.Answers `json:"answers"`
	Profile assessment.Profile `json:"profile"`
}

// Output repeats the total and tier at the top level so a later
// capture-lead task reads them as assessmentScore and assessmentTier.
type Output struct {
	Scores          assessment.Scores          `json:"scores"`
	AssessmentScore int                        `json:"assessmentScore"`
	AssessmentTier  string                     `json:"assessmentTier"`
	TierDescription assessment.TierDescription `json:"tierDescription"`
}
