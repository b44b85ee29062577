package handleemailevent

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/models"
	"prospect-composer/internal/sequences"
)

const TaskType = "handle-email-event"

const (
	ActionUnsubscribed = "unsubscribed"
	ActionComplaint    = "unsubscribed_complaint"
	ActionPausedReply  = "paused_reply"
	ActionIgnored      = "ignored"
)

type LeadService interface {
	GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
}

// SequenceService is satisfied by sequences.Service.
type SequenceService interface {
	HandleBounce(ctx context.Context, email string, bounce sequences.BounceType, reason string) (string, error)
	HandleComplaint(ctx context.Context, email string) (bool, error)
	HandleReply(ctx context.Context, email string) (bool, error)
	Unsubscribe(ctx context.Context, leadID string) (*sequences.Sequence, error)
	UnsubscribeByToken(ctx context.Context, token string) (*sequences.Sequence, error)
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Event != EventUnsubscribe && input.Email == "" {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("%s events need an email", input.Event))
	}

	switch input.Event {
	case EventBounce:
		bounce := input.BounceType
		if bounce == "" {
			bounce = sequences.BounceUndetermined
		}
		action, err := h.sequences.HandleBounce(ctx, input.Email, bounce, input.Reason)
		if err != nil {
			return nil, err
		}
		return &Output{Action: action}, nil

	case EventComplaint:
		ok, err := h.sequences.HandleComplaint(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		return &Output{Action: pick(ok, ActionComplaint, sequences.ActionLeadNotFound)}, nil

	case EventReply:
		ok, err := h.sequences.HandleReply(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		return &Output{Action: pick(ok, ActionPausedReply, ActionIgnored)}, nil

	case EventUnsubscribe:
		return h.unsubscribe(ctx, input)
	}
	return nil, apperrors.NewInputValidationError(fmt.Sprintf("event %q is not supported", input.Event))
}

// unsubscribe prefers the link token and falls back to the address.
func (h *Handler) unsubscribe(ctx context.Context, input *Input) (*Output, error) {
	if input.Token != "" {
		seq, err := h.sequences.UnsubscribeByToken(ctx, input.Token)
		if err != nil {
			return nil, err
		}
		return &Output{Action: ActionUnsubscribed, LeadID: seq.LeadID}, nil
	}
	if input.Email == "" {
		return nil, apperrors.NewInputValidationError("unsubscribe needs a token or an email")
	}
	lead, err := h.leads.GetLeadByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	seq, err := h.sequences.Unsubscribe(ctx, lead.LeadID)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Lead unsubscribed by address", map[string]interface{}{"leadId": seq.LeadID})
	return &Output{Action: ActionUnsubscribed, LeadID: seq.LeadID}, nil
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
