package capturelead

import "prospect-composer/internal/models"

type Input = models.CreateLeadInput

type Output struct {
	LeadID          string            `json:"leadId"`
	Tier            models.LeadTier   `json:"tier"`
	Status          models.LeadStatus `json:"status"`
	Created         bool              `json:"created"`
	CRMContactID    string            `json:"crmContactId,omitempty"`
	NeedsSalesAlert bool              `json:"needsSalesAlert"`
}
