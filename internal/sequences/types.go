// Package sequences runs the follow-up email series a lead is enrolled in
// after downloading a guide or completing an assessment.
package sequences

import (
	"time"

	"prospect-composer/internal/models"
)

// Type selects the email series.
type Type string

const (
	TypeAssessment   Type = "assessment"
	TypeGuideLegal   Type = "guide-legal"
	TypeGuideGeneral Type = "guide-general"
)

var Types = []Type{TypeAssessment, TypeGuideLegal, TypeGuideGeneral}

type Status string

const (
	StatusActive       Status = "active"
	StatusCompleted    Status = "completed"
	StatusPaused       Status = "paused"
	StatusUnsubscribed Status = "unsubscribed"
	StatusBounced      Status = "bounced"
)

type PauseReason string

const (
	PauseManual      PauseReason = "manual"
	PauseBounceHard  PauseReason = "bounce_hard"
	PauseBounceSoft  PauseReason = "bounce_soft"
	PauseComplaint   PauseReason = "complaint"
	PauseReplied     PauseReason = "replied"
	PauseOutOfOffice PauseReason = "out_of_office"
)

type BounceType string

const (
	BounceHard         BounceType = "hard"
	BounceSoft         BounceType = "soft"
	BounceUndetermined BounceType = "undetermined"
)

// Schedule lists the days after enrollment on which an email goes out.
var Schedule = []int{0, 2, 7, 14, 21}

// FinalDay is the last scheduled day; sending it completes the sequence.
var FinalDay = Schedule[len(Schedule)-1]

// MaxSoftBounces pauses a sequence once this many soft bounces accumulate.
const MaxSoftBounces = 3

// SentEmail records one delivered sequence email.
type SentEmail struct {
	SentAt    time.Time `json:"sentAt"`
	MessageID string    `json:"messageId,omitempty"`
}

// Sequence is a lead's progress through one email series.
type Sequence struct {
	LeadID      string            `json:"leadId"`
	Type        Type              `json:"sequenceType"`
	Status      Status            `json:"status"`
	PauseReason PauseReason       `json:"pauseReason,omitempty"`
	CurrentDay  int               `json:"currentDay"`
	EmailsSent  map[int]SentEmail `json:"emailsSent"`
	EnrolledAt  time.Time         `json:"enrolledAt"`

	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`

	BounceType       BounceType `json:"bounceType,omitempty"`
	BounceCount      int        `json:"bounceCount"`
	LastBounceAt     *time.Time `json:"lastBounceAt,omitempty"`
	LastBounceReason string     `json:"lastBounceReason,omitempty"`

	ComplainedAt *time.Time `json:"complainedAt,omitempty"`
	RepliedAt    *time.Time `json:"repliedAt,omitempty"`
	PausedAt     *time.Time `json:"pausedAt,omitempty"`
	ResumedAt    *time.Time `json:"resumedAt,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NextEmailDay is the earliest scheduled day that is due and not yet sent.
// Only active sequences have one.
func (s *Sequence) NextEmailDay(now time.Time) (int, bool) {
	if s.Status != StatusActive {
		return 0, false
	}
	elapsed := int(now.Sub(s.EnrolledAt) / (24 * time.Hour))
	for _, day := range Schedule {
		if day > elapsed {
			break
		}
		if _, sent := s.EmailsSent[day]; !sent {
			return day, true
		}
	}
	return 0, false
}

// AllSent reports whether every scheduled email has gone out.
func (s *Sequence) AllSent() bool {
	for _, day := range Schedule {
		if _, sent := s.EmailsSent[day]; !sent {
			return false
		}
	}
	return true
}

// legalGuides get the legal series; every other guide gets the general one.
var legalGuides = map[string]bool{
	"legal-ai-readiness":   true,
	"ai-in-legal":          true,
	"associate-multiplier": true,
	"win-more-pitches":     true,
	"partner-succession":   true,
	"last-vendor":          true,
}

// TypeForGuide picks the series for a guide download.
func TypeForGuide(slug string) Type {
	if legalGuides[slug] {
		return TypeGuideLegal
	}
	return TypeGuideGeneral
}

// TypeForLead picks the series from how the lead came in. Contact and
// newsletter leads are not enrolled.
func TypeForLead(lead *models.Lead) (Type, bool) {
	switch lead.FormType {
	case models.FormTypeAssessment, models.FormTypeAudit:
		return TypeAssessment, true
	case models.FormTypeGuide:
		return TypeForGuide(lead.ResourceSlug), true
	}
	return "", false
}

var assessmentNames = map[string]string{
	"data-ai-readiness":       "Data & AI Readiness Assessment",
	"manufacturing":           "Manufacturing AI Readiness Assessment",
	"healthcare-benchmark":    "Healthcare Data Benchmark",
	"healthcare-ai-readiness": "Healthcare AI Readiness Assessment",
	"legal":                   "Legal AI Readiness Assessment",
	"commercial-real-estate":  "CRE Data & AI Assessment",
}

const defaultAssessmentName = "Data & AI Readiness Assessment"

// AssessmentName is the display name for an assessment's resource slug.
func AssessmentName(slug string) string {
	if name, ok := assessmentNames[slug]; ok {
		return name
	}
	return defaultAssessmentName
}

// Result summarises one processing run.
type Result struct {
	TotalProcessed     int           `json:"totalProcessed"`
	EmailsSent         int           `json:"emailsSent"`
	CompletedSequences int           `json:"completedSequences"`
	Errors             []ResultError `json:"errors"`
}

type ResultError struct {
	LeadID string `json:"leadId"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error"`
}
