package enrollleadsequence

import (
	"context"
	"fmt"
	"slices"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/models"
	"prospect-composer/internal/sequences"
)

const TaskType = "enroll-lead-sequence"

type LeadService interface {
	GetLead(ctx context.Context, leadID string) (*models.Lead, error)
}

// SequenceService is satisfied by sequences.Service.
type SequenceService interface {
	Enroll(ctx context.Context, leadID string, seqType sequences.Type) (*sequences.Sequence, error)
	SendFirst(ctx context.Context, lead *models.Lead, seq *sequences.Sequence) (*sequences.SentEmail, error)
}

type Handler struct {
	config    *Config
	leads     LeadService
	sequences SequenceService
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, leads LeadService, seqs SequenceService, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		leads:     leads,
		sequences: seqs,
		validator: validator,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.RunJob(client, job, camunda.Runtime{
		TaskType:      TaskType,
		Timeout:       h.config.Timeout,
		Validator:     h.validator,
		Logger:        h.logger,
		Observability: h.obs,
	}, h.Execute)
}

// Execute enrolls the lead in the sequence its form calls for, or the one
// named in the input, and sends day 0 unless told not to. A lead that cannot
// be enrolled completes the job with enrolled=false so the process can branch
// on it. A failed first send is left for the next processing run.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SequenceType != "" && !slices.Contains(sequences.Types, input.SequenceType) {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("sequenceType %q is not supported", input.SequenceType))
	}
	lead, err := h.leads.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	seqType := input.SequenceType
	if seqType == "" {
		t, ok := sequences.TypeForLead(lead)
		if !ok {
			return &Output{Reason: fmt.Sprintf("no sequence for %s leads", lead.FormType)}, nil
		}
		seqType = t
	}

	seq, err := h.sequences.Enroll(ctx, lead.LeadID, seqType)
	if apperrors.HasCode(err, apperrors.ErrCodeSequenceStateInvalid) {
		stdErr, _ := apperrors.AsStandardError(err)
		h.logger.Info("Lead not enrolled", map[string]interface{}{
			"leadId": lead.LeadID,
			"reason": stdErr.Details,
		})
		return &Output{Reason: stdErr.Details, SequenceType: seqType}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &Output{Enrolled: true, SequenceType: seqType}
	if input.SendFirstEmail != nil && !*input.SendFirstEmail {
		return out, nil
	}
	sent, err := h.sequences.SendFirst(ctx, lead, seq)
	if err != nil {
		h.logger.Warn("First sequence email not sent", map[string]interface{}{
			"leadId":         lead.LeadID,
			"sequenceType":   seqType,
			"firstEmailSent": false,
			"error":          err.Error(),
		})
		return out, nil
	}
	out.FirstEmailSent = true
	out.MessageID = sent.MessageID
	return out, nil
}
