package enrollleadsequence

import "prospect-composer/internal/sequences"

type Input struct {
	LeadID         string         `json:"leadId"`
	SequenceType   sequences.Type `json:"sequenceType,omitempty"`
	SendFirstEmail *bool          `json:"sendFirstEmail,omitempty"`
}

type Output struct {
	Enrolled       bool           `json:"enrolled"`
	Reason         string         `json:"reason,omitempty"`
	SequenceType   sequences.Type `json:"sequenceType,omitempty"`
	FirstEmailSent bool           `json:"firstEmailSent"`
	MessageID      string         `json:"messageId,omitempty"`
}
