package leads

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/metrics"
	"prospect-composer/internal/common/validation"
	"prospect-composer/internal/models"
)

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// CRMSyncer pushes a lead to the external CRM and returns its contact id there.
type CRMSyncer interface {
	SyncLead(ctx context.Context, lead *models.Lead) (string, error)
}

// Service is the lead CRM: capture, lookup, status and tier changes, notes
// and contact history.
type Service struct {
	store  Store
	cache  *Cache
	crm    CRMSyncer
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

type ServiceOption func(*Service)

// WithCache enables the Redis read-through cache.
func WithCache(c *Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

func WithCRM(crm CRMSyncer) ServiceOption {
	return func(s *Service) { s.crm = crm }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLead records a form submission. A repeat submission from a known
// email updates that lead instead of creating another; created reports which
// happened.
func (s *Service) CreateLead(ctx context.Context, in models.CreateLeadInput) (lead *models.Lead, created bool, err error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := ValidateCreateInput(in); err != nil {
		return nil, false, err
	}

	now := s.now()
	tier := TierFor(in.FormType, in.AssessmentTier)

	existing, err := s.store.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, ErrLeadNotFound):
	case err != nil:
		return nil, false, apperrors.NewDatabaseError("find lead by email", err)
	default:
		mergeSubmission(existing, in, tier, now)
		if err := s.store.UpdateSubmission(ctx, existing); err != nil {
			return nil, false, apperrors.NewDatabaseError("update lead", err)
		}
		s.invalidate(ctx, existing.LeadID)
		s.logger.Info("Lead updated from repeat submission", map[string]interface{}{
			"leadId":   existing.LeadID,
			"formType": in.FormType,
			"tier":     existing.Tier,
		})
		return existing, false, nil
	}

	lead = &models.Lead{
		LeadID:          s.newID(),
		Email:           in.Email,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Company:         in.Company,
		Phone:           in.Phone,
		Message:         in.Message,
		FormType:        in.FormType,
		ResourceSlug:    in.ResourceSlug,
		ResourceTitle:   in.ResourceTitle,
		SourcePage:      in.SourcePage,
		UTMSource:       in.UTMSource,
		UTMMedium:       in.UTMMedium,
		UTMCampaign:     in.UTMCampaign,
		Status:          models.LeadStatusNew,
		Tier:            tier,
		Industry:        in.Industry,
		AssessmentScore: in.AssessmentScore,
		AssessmentTier:  in.AssessmentTier,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastActivityAt:  &now,
	}
	if err := s.store.Insert(ctx, lead); err != nil {
		return nil, false, apperrors.NewDatabaseError("insert lead", err)
	}

	metrics.LeadsCaptured.WithLabelValues(string(lead.FormType), string(lead.Tier)).Inc()
	s.logger.Info("Lead created", map[string]interface{}{
		"leadId":   lead.LeadID,
		"formType": lead.FormType,
		"tier":     lead.Tier,
	})
	return lead, true, nil
}

// ValidateCreateInput checks a submission before anything is stored.
func ValidateCreateInput(in models.CreateLeadInput) error {
	var problems []string
	if strings.TrimSpace(in.FirstName) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		problems = append(problems, "lastName is required")
	}
	switch {
	case strings.TrimSpace(in.Email) == "":
		problems = append(problems, "email is required")
	case !validation.ValidateEmail(strings.TrimSpace(in.Email)):
		problems = append(problems, "email is invalid")
	}
	if !slices.Contains(models.FormTypes, in.FormType) {
		problems = append(problems, fmt.Sprintf("formType %q is not supported", in.FormType))
	}
	if in.FormType == models.FormTypeGuide && !validation.ValidateSlug(in.ResourceSlug) {
		problems = append(problems, "resourceSlug is required for guide downloads")
	}
	if in.Phone != "" && !validation.ValidatePhone(in.Phone) {
		problems = append(problems, "phone is invalid")
	}
	if len(problems) > 0 {
		return apperrors.NewLeadInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// mergeSubmission copies the non-empty parts of a repeat submission.
func mergeSubmission(lead *models.Lead, in models.CreateLeadInput, tier models.LeadTier, now time.Time) {
	setIf := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	setIf(&lead.FirstName, in.FirstName)
	setIf(&lead.LastName, in.LastName)
	setIf(&lead.Company, in.Company)
	setIf(&lead.Phone, in.Phone)
	setIf(&lead.Message, in.Message)
	setIf(&lead.Industry, in.Industry)
	if in.AssessmentScore != nil {
		lead.AssessmentScore = in.AssessmentScore
	}
	setIf(&lead.AssessmentTier, in.AssessmentTier)
	if tierRank(tier) < tierRank(lead.Tier) {
		lead.Tier = tier
	}
	lead.UpdatedAt = now
	lead.LastActivityAt = &now
}

// tierRank orders tiers with A first; unset sorts last.
func tierRank(t models.LeadTier) int {
	if i := slices.Index(models.LeadTiers, t); i >= 0 {
		return i
	}
	return len(models.LeadTiers)
}

// GetLead reads through the cache when one is configured.
func (s *Service) GetLead(ctx context.Context, leadID string) (*models.Lead, error) {
	if s.cache != nil {
		lead, found, err := s.cache.Get(ctx, leadID)
		if err != nil {
			s.logger.Warn("Lead cache read failed", map[string]interface{}{"leadId": leadID, "error": err.Error()})
		} else if found {
			return lead, nil
		}
	}

	lead, err := s.store.Get(ctx, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		return nil, apperrors.NewLeadNotFoundError(leadID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get lead", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, lead); err != nil {
			s.logger.Warn("Lead cache write failed", map[string]interface{}{"leadId": leadID, "error": err.Error()})
		}
	}
	return lead, nil
}

// GetLeadByEmail looks a lead up by its normalized address. It always reads
// the store, since the cache is keyed by lead id.
func (s *Service) GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	lead, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrLeadNotFound) {
		return nil, apperrors.NewLeadNotFoundError(email)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get lead by email", err)
	}
	return lead, nil
}

func (s *Service) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) error {
	if !slices.Contains(models.LeadStatuses, status) {
		return apperrors.NewLeadInvalidError(fmt.Sprintf("status %q is not supported", status))
	}
	return s.write(ctx, leadID, "update lead status", func() error {
		return s.store.UpdateStatus(ctx, leadID, status, s.now())
	})
}

func (s *Service) UpdateTier(ctx context.Context, leadID string, tier models.LeadTier) error {
	if !slices.Contains(models.LeadTiers, tier) {
		return apperrors.NewLeadInvalidError(fmt.Sprintf("tier %q is not supported", tier))
	}
	return s.write(ctx, leadID, "update lead tier", func() error {
		return s.store.UpdateTier(ctx, leadID, tier, s.now())
	})
}

func (s *Service) AddNote(ctx context.Context, leadID, content, author string) (*models.LeadNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewLeadInvalidError("note content is required")
	}
	note := models.LeadNote{ID: s.newID(), Content: content, Author: author, CreatedAt: s.now()}
	err := s.write(ctx, leadID, "add lead note", func() error {
		return s.store.InsertNote(ctx, leadID, note)
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *Service) RecordContact(ctx context.Context, leadID string, channel models.ContactChannel, campaign, notes string) (*models.ContactRecord, error) {
	if !slices.Contains(models.ContactChannels, channel) {
		return nil, apperrors.NewLeadInvalidError(fmt.Sprintf("channel %q is not supported", channel))
	}
	record := models.ContactRecord{
		ID:          s.newID(),
		Channel:     channel,
		ContactedAt: s.now(),
		Campaign:    campaign,
		Notes:       notes,
	}
	err := s.write(ctx, leadID, "record lead contact", func() error {
		return s.store.InsertContact(ctx, leadID, record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) ListLeads(ctx context.Context, params models.LeadQueryParams) (*models.LeadQueryResult, error) {
	switch {
	case params.Limit <= 0:
		params.Limit = DefaultListLimit
	case params.Limit > MaxListLimit:
		params.Limit = MaxListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	result, err := s.store.List(ctx, params)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list leads", err)
	}
	return result, nil
}

func (s *Service) Stats(ctx context.Context) (*models.LeadStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("lead stats", err)
	}
	return stats, nil
}

// SyncToCRM pushes the lead to the CRM and remembers the contact id. Without
// a CRM configured it does nothing.
func (s *Service) SyncToCRM(ctx context.Context, lead *models.Lead) error {
	if s.crm == nil {
		return nil
	}
	contactID, err := s.crm.SyncLead(ctx, lead)
	if err != nil {
		return apperrors.NewCRMSyncFailedError(err)
	}
	if contactID == "" || contactID == lead.CRMContactID {
		return nil
	}
	lead.CRMContactID = contactID
	return s.write(ctx, lead.LeadID, "set crm contact", func() error {
		return s.store.SetCRMContact(ctx, lead.LeadID, contactID)
	})
}

// write runs a store mutation, maps its errors, and drops the cached copy.
func (s *Service) write(ctx context.Context, leadID, op string, fn func() error) error {
	err := fn()
	if errors.Is(err, ErrLeadNotFound) {
		return apperrors.NewLeadNotFoundError(leadID)
	}
	if err != nil {
		return apperrors.NewDatabaseError(op, err)
	}
	s.invalidate(ctx, leadID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, leadID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, leadID); err != nil {
		s.logger.Warn("Lead cache invalidation failed", map[string]interface{}{"leadId": leadID, "error": err.Error()})
	}
}
