package notifylead

import "prospect-composer/internal/models"

type Input struct {
	LeadID string `json:"leadId"`
}

type Output struct {
	Notifications []models.Notification `json:"notifications"`
	Sent          int                   `json:"sent"`
}
