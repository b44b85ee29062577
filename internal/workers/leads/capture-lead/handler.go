package capturelead

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/leads"
	"prospect-composer/internal/models"
)

const TaskType = "capture-lead"

// LeadService is the part of leads.Service the worker uses.
type LeadService interface {
	CreateLead(ctx context.Context, in models.CreateLeadInput) (*models.Lead, bool, error)
	SyncToCRM(ctx context.Context, lead *models.Lead) error
}

type Handler struct {
	config    *Config
	leads     LeadService
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, svc LeadService, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		leads:     svc,
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

// Execute stores the submission. The lead is already saved when the CRM sync
// runs, so a sync failure is logged and the job still completes.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	lead, created, err := h.leads.CreateLead(ctx, *input)
	if err != nil {
		return nil, err
	}

	if h.config.SyncCRM {
		if err := h.leads.SyncToCRM(ctx, lead); err != nil {
			h.logger.Warn("CRM sync failed", map[string]interface{}{
				"leadId": lead.LeadID,
				"error":  err.Error(),
			})
		}
	}

	return &Output{
		LeadID:          lead.LeadID,
		Tier:            lead.Tier,
		Status:          lead.Status,
		Created:         created,
		CRMContactID:    lead.CRMContactID,
		NeedsSalesAlert: leads.NeedsSalesAlert(lead.FormType),
	}, nil
}
