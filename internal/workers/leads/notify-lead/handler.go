package notifylead

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
	"prospect-composer/internal/notify"
)

const TaskType = "notify-lead"

type LeadService interface {
	GetLead(ctx context.Context, leadID string) (*models.Lead, error)
	RecordContact(ctx context.Context, leadID string, channel models.ContactChannel, campaign, notes string) (*models.ContactRecord, error)
}

// Notifier sends the messages a lead triggers. notify.Notifier implements it.
type Notifier interface {
	NotifyLead(ctx context.Context, lead *models.Lead) []models.Notification
}

type Handler struct {
	config    *Config
	leads     LeadService
	notifier  Notifier
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, svc LeadService, notifier Notifier, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		leads:     svc,
		notifier:  notifier,
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

// Execute sends whatever the lead's form type calls for. It fails only when
// every attempted send failed, so a retry never repeats a delivered message.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	lead, err := h.leads.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	sent := h.notifier.NotifyLead(ctx, lead)
	out := &Output{Notifications: sent}

	var failed []models.Notification
	for _, n := range sent {
		switch n.Status {
		case notify.StatusSent:
			out.Sent++
			h.recordDelivery(ctx, lead, n)
		case notify.StatusFailed:
			failed = append(failed, n)
		}
	}
	if out.Sent == 0 && len(failed) > 0 {
		return nil, apperrors.NewNotificationFailedError(failed[0].Channel,
			fmt.Errorf("%d notification(s) failed for lead %s", len(failed), lead.LeadID))
	}
	return out, nil
}

// recordDelivery adds guide emails to the lead's contact history.
func (h *Handler) recordDelivery(ctx context.Context, lead *models.Lead, n models.Notification) {
	if n.Type != models.NotificationGuideDelivery {
		return
	}
	_, err := h.leads.RecordContact(ctx, lead.LeadID, models.ChannelEmail, n.Type, "Sent "+lead.ResourceTitle)
	if err != nil {
		h.logger.Warn("Could not record guide delivery", map[string]interface{}{
			"leadId": lead.LeadID,
			"error":  err.Error(),
		})
	}
}
