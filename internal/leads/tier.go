package leads

import (
	"prospect-composer/internal/assessment"
	"prospect-composer/internal/models"
)

// TierFor prioritises a lead from how it came in. Audits and assessments that
// reveal foundational gaps are the best fit and rank A; other audits and
// assessments, and direct contact requests, rank B; content downloads rank C.
func TierFor(formType models.FormType, assessmentTier string) models.LeadTier {
	switch formType {
	case models.FormTypeAudit, models.FormTypeAssessment:
		if assessment.Tier(assessmentTier).NeedsFoundation() {
			return models.LeadTierA
		}
		return models.LeadTierB
	case models.FormTypeContact:
		return models.LeadTierB
	default:
		return models.LeadTierC
	}
}

// NeedsSalesAlert reports whether sales should hear about a lead right away.
func NeedsSalesAlert(formType models.FormType) bool {
	return formType == models.FormTypeAudit || formType == models.FormTypeAssessment
}
