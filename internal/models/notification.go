package models

import "time"

// Notification channels.
const (
	ChannelSES = "ses"
	ChannelSNS = "sns"
)

// Notification kinds sent for a lead.
const (
	NotificationGuideDelivery = "guide_delivery"
	NotificationSalesAlert    = "sales_alert"
)

// Notification records one message sent about a lead.
type Notification struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Status    string    `json:"status"` // sent, failed, disabled
	SentAt    time.Time `json:"sentAt"`
}
