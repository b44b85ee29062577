package handleemailevent

import "prospect-composer/internal/sequences"

type Event string

const (
	EventBounce      Event = "bounce"
	EventComplaint   Event = "complaint"
	EventReply       Event = "reply"
	EventUnsubscribe Event = "unsubscribe"
)

// Input is a delivery event from SES or an unsubscribe click. Unsubscribes
// carry either the link's token or the address.
type Input struct {
	Email      string               `json:"email,omitempty"`
	Event      Event                `json:"event"`
	BounceType sequences.BounceType `json:"bounceType,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Token      string               `json:"token,omitempty"`
}

type Output struct {
	Action string `json:"action"`
	LeadID string `json:"leadId,omitempty"`
}
