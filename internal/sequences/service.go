package sequences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/models"
)

// Bounce handling outcomes.
const (
	ActionBounced            = "bounced"
	ActionPausedSoftBounce   = "paused_soft_bounce"
	ActionSoftBounceRecorded = "soft_bounce_recorded"
	ActionLeadNotFound       = "lead_not_found"
)

// Reasons a lead cannot be enrolled.
const (
	ReasonActive       = "Already in active sequence"
	ReasonUnsubscribed = "Previously unsubscribed"
	ReasonBounced      = "Email address bounced (invalid)"
	ReasonComplained   = "Previously marked as spam"
)

// LeadReader is satisfied by leads.Service.
type LeadReader interface {
	GetLead(ctx context.Context, leadID string) (*models.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
}

// Sender delivers one sequence email. Mailer implements it.
type Sender interface {
	Send(ctx context.Context, lead *models.Lead, seqType Type, day int) (string, error)
}

// Service moves leads through their email sequences.
type Service struct {
	store  Store
	leads  LeadReader
	sender Sender
	logger logger.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, leads LeadReader, sender Sender, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		leads:  leads,
		sender: sender,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eligible reports whether a lead with this sequence may be enrolled again,
// and why not. A lead that was never enrolled is eligible.
func Eligible(seq *Sequence) (bool, string) {
	switch {
	case seq == nil:
		return true, ""
	case seq.Status == StatusActive:
		return false, ReasonActive
	case seq.Status == StatusUnsubscribed:
		return false, ReasonUnsubscribed
	case seq.Status == StatusBounced, seq.BounceType == BounceHard:
		return false, ReasonBounced
	case seq.ComplainedAt != nil:
		return false, ReasonComplained
	}
	return true, ""
}

func (s *Service) Get(ctx context.Context, leadID string) (*Sequence, error) {
	seq, err := s.store.Get(ctx, leadID)
	if errors.Is(err, ErrSequenceNotFound) {
		return nil, apperrors.NewSequenceNotFoundError(leadID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get sequence", err)
	}
	return seq, nil
}

// CanEnroll looks up the lead's current sequence and applies Eligible.
func (s *Service) CanEnroll(ctx context.Context, leadID string) (bool, string, error) {
	seq, err := s.find(ctx, leadID)
	if err != nil {
		return false, "", err
	}
	ok, reason := Eligible(seq)
	return ok, reason, nil
}

// Enroll starts the lead on day 0 of seqType, replacing any finished
// sequence. Leads Eligible rejects get SEQUENCE_STATE_INVALID.
func (s *Service) Enroll(ctx context.Context, leadID string, seqType Type) (*Sequence, error) {
	if !slices.Contains(Types, seqType) {
		return nil, apperrors.NewSequenceStateError(fmt.Sprintf("sequence type %q is not supported", seqType))
	}
	if _, err := s.leads.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if ok, reason := Eligible(existing); !ok {
		return nil, apperrors.NewSequenceStateError(reason).WithMetadata("leadId", leadID)
	}

	now := s.now()
	seq := &Sequence{
		LeadID:     leadID,
		Type:       seqType,
		Status:     StatusActive,
		EmailsSent: map[int]SentEmail{},
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if err := s.save(ctx, seq, "enroll in sequence"); err != nil {
		return nil, err
	}
	s.logger.Info("Lead enrolled in sequence", map[string]interface{}{
		"leadId":       leadID,
		"sequenceType": seqType,
	})
	return seq, nil
}

// SendFirst delivers the day 0 email unless it already went out. A send
// failure leaves the sequence active so the next processing run retries it.
func (s *Service) SendFirst(ctx context.Context, lead *models.Lead, seq *Sequence) (*SentEmail, error) {
	if sent, ok := seq.EmailsSent[0]; ok {
		return &sent, nil
	}
	id, err := s.sender.Send(ctx, lead, seq.Type, 0)
	if err != nil {
		return nil, err
	}
	if err := s.markSent(ctx, seq, 0, id); err != nil {
		return nil, err
	}
	sent := seq.EmailsSent[0]
	return &sent, nil
}

// Pause stops an active sequence until Resume.
func (s *Service) Pause(ctx context.Context, leadID string, reason PauseReason) (*Sequence, error) {
	seq, err := s.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if seq.Status != StatusActive {
		return nil, apperrors.NewSequenceStateError(fmt.Sprintf("sequence is %s, not active", seq.Status))
	}
	now := s.now()
	seq.Status = StatusPaused
	seq.PauseReason = reason
	seq.PausedAt = &now
	seq.UpdatedAt = now
	return seq, s.save(ctx, seq, "pause sequence")
}

// Resume reactivates a paused sequence. Unsubscribed, bounced and
// complained-about sequences stay stopped. Resuming after soft bounces
// clears the bounce count.
func (s *Service) Resume(ctx context.Context, leadID string) (*Sequence, error) {
	seq, err := s.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	switch {
	case seq.Status == StatusUnsubscribed:
		return nil, apperrors.NewSequenceStateError("cannot resume unsubscribed lead")
	case seq.Status == StatusBounced, seq.BounceType == BounceHard:
		return nil, apperrors.NewSequenceStateError("cannot resume bounced lead (hard bounce)")
	case seq.Status != StatusPaused:
		return nil, apperrors.NewSequenceStateError(fmt.Sprintf("sequence is %s, not paused", seq.Status))
	case seq.PauseReason == PauseComplaint || seq.ComplainedAt != nil:
		return nil, apperrors.NewSequenceStateError("cannot resume after spam complaint")
	}

	now := s.now()
	if seq.PauseReason == PauseBounceSoft {
		seq.BounceCount = 0
	}
	seq.Status = StatusActive
	seq.PauseReason = ""
	seq.ResumedAt = &now
	seq.UpdatedAt = now
	return seq, s.save(ctx, seq, "resume sequence")
}

// Unsubscribe stops all further sequence email. A lead that was never
// enrolled gets a stopped sequence so it cannot be enrolled later.
func (s *Service) Unsubscribe(ctx context.Context, leadID string) (*Sequence, error) {
	lead, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	seq, err := s.findOrDefault(ctx, lead)
	if err != nil {
		return nil, err
	}
	now := s.now()
	seq.Status = StatusUnsubscribed
	seq.UnsubscribedAt = &now
	seq.UpdatedAt = now
	if err := s.save(ctx, seq, "unsubscribe"); err != nil {
		return nil, err
	}
	s.logger.Info("Lead unsubscribed from sequence", map[string]interface{}{"leadId": leadID})
	return seq, nil
}

// UnsubscribeByToken resolves an unsubscribe link's token to its lead.
func (s *Service) UnsubscribeByToken(ctx context.Context, token string) (*Sequence, error) {
	email, ok := DecodeUnsubscribeToken(token)
	if !ok {
		return nil, apperrors.NewInputValidationError("unsubscribe token is invalid")
	}
	lead, err := s.leads.GetLeadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.Unsubscribe(ctx, lead.LeadID)
}

func (s *Service) Complete(ctx context.Context, leadID string) (*Sequence, error) {
	seq, err := s.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	s.complete(seq)
	return seq, s.save(ctx, seq, "complete sequence")
}

// RecordEmailSent marks day as delivered. Delivering the final day completes
// the sequence.
func (s *Service) RecordEmailSent(ctx context.Context, leadID string, day int, messageID string) (*Sequence, error) {
	if !slices.Contains(Schedule, day) {
		return nil, apperrors.NewSequenceStateError(fmt.Sprintf("day %d is not on the schedule", day))
	}
	seq, err := s.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return seq, s.markSent(ctx, seq, day, messageID)
}

// HandleBounce records a delivery bounce for the address. A hard bounce
// stops the sequence for good; soft and undetermined bounces pause it once
// MaxSoftBounces accumulate. Unknown addresses report ActionLeadNotFound.
func (s *Service) HandleBounce(ctx context.Context, email string, bounce BounceType, reason string) (string, error) {
	lead, err := s.leadByEmail(ctx, email)
	if err != nil || lead == nil {
		return ActionLeadNotFound, err
	}
	seq, err := s.findOrDefault(ctx, lead)
	if err != nil {
		return "", err
	}

	now := s.now()
	seq.BounceCount++
	seq.LastBounceAt = &now
	seq.LastBounceReason = reason
	seq.UpdatedAt = now

	action := ActionSoftBounceRecorded
	if bounce == BounceHard {
		seq.Status = StatusBounced
		seq.BounceType = BounceHard
		seq.PauseReason = PauseBounceHard
		seq.PausedAt = &now
		action = ActionBounced
	} else {
		seq.BounceType = BounceSoft
		if seq.BounceCount >= MaxSoftBounces {
			seq.Status = StatusPaused
			seq.PauseReason = PauseBounceSoft
			seq.PausedAt = &now
			action = ActionPausedSoftBounce
		}
	}
	if err := s.save(ctx, seq, "record bounce"); err != nil {
		return "", err
	}
	s.logger.Info("Sequence bounce recorded", map[string]interface{}{
		"leadId":      lead.LeadID,
		"bounceType":  bounce,
		"bounceCount": seq.BounceCount,
		"action":      action,
	})
	return action, nil
}

// HandleComplaint unsubscribes an address that reported a sequence email as
// spam. It reports false for unknown addresses.
func (s *Service) HandleComplaint(ctx context.Context, email string) (bool, error) {
	lead, err := s.leadByEmail(ctx, email)
	if err != nil || lead == nil {
		return false, err
	}
	seq, err := s.findOrDefault(ctx, lead)
	if err != nil {
		return false, err
	}
	now := s.now()
	seq.Status = StatusUnsubscribed
	seq.UnsubscribedAt = &now
	seq.ComplainedAt = &now
	seq.PauseReason = PauseComplaint
	seq.UpdatedAt = now
	if err := s.save(ctx, seq, "record complaint"); err != nil {
		return false, err
	}
	s.logger.Warn("Sequence complaint received, lead unsubscribed", map[string]interface{}{"leadId": lead.LeadID})
	return true, nil
}

// HandleReply pauses an active sequence once the lead writes back. It
// reports false when there was nothing active to pause.
func (s *Service) HandleReply(ctx context.Context, email string) (bool, error) {
	lead, err := s.leadByEmail(ctx, email)
	if err != nil || lead == nil {
		return false, err
	}
	seq, err := s.find(ctx, lead.LeadID)
	if err != nil || seq == nil || seq.Status != StatusActive {
		return false, err
	}
	now := s.now()
	seq.Status = StatusPaused
	seq.PauseReason = PauseReplied
	seq.PausedAt = &now
	seq.RepliedAt = &now
	seq.UpdatedAt = now
	if err := s.save(ctx, seq, "record reply"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) markSent(ctx context.Context, seq *Sequence, day int, messageID string) error {
	now := s.now()
	if seq.EmailsSent == nil {
		seq.EmailsSent = map[int]SentEmail{}
	}
	seq.EmailsSent[day] = SentEmail{SentAt: now, MessageID: messageID}
	seq.CurrentDay = day
	seq.UpdatedAt = now
	if day == FinalDay {
		s.complete(seq)
	}
	return s.save(ctx, seq, "record sequence email")
}

func (s *Service) complete(seq *Sequence) {
	now := s.now()
	seq.Status = StatusCompleted
	seq.CompletedAt = &now
	seq.UpdatedAt = now
}

// find returns nil without error when the lead was never enrolled.
func (s *Service) find(ctx context.Context, leadID string) (*Sequence, error) {
	seq, err := s.store.Get(ctx, leadID)
	if errors.Is(err, ErrSequenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get sequence", err)
	}
	return seq, nil
}

// findOrDefault stands in a paused placeholder for a lead that was never
// enrolled, so stop events still stick. The placeholder never sends and a
// later Enroll replaces it.
func (s *Service) findOrDefault(ctx context.Context, lead *models.Lead) (*Sequence, error) {
	seq, err := s.find(ctx, lead.LeadID)
	if err != nil || seq != nil {
		return seq, err
	}
	seqType, ok := TypeForLead(lead)
	if !ok {
		seqType = TypeAssessment
	}
	now := s.now()
	return &Sequence{
		LeadID:     lead.LeadID,
		Type:       seqType,
		Status:     StatusPaused,
		EmailsSent: map[int]SentEmail{},
		EnrolledAt: now,
		UpdatedAt:  now,
	}, nil
}

// leadByEmail returns nil, nil for an address no lead has.
func (s *Service) leadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	lead, err := s.leads.GetLeadByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound) {
		s.logger.Info("Email event for unknown address", map[string]interface{}{"email": email})
		return nil, nil
	}
	return lead, err
}

func (s *Service) save(ctx context.Context, seq *Sequence, op string) error {
	if err := s.store.Save(ctx, seq); err != nil {
		return apperrors.NewDatabaseError(op, err)
	}
	return nil
}
