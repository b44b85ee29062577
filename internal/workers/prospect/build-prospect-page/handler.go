package buildprospectpage

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/metrics"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/prospect"
)

const TaskType = "build-prospect-page"

// PageService builds a prospect page behind its password.
type PageService interface {
	Page(ctx context.Context, slug, password string) (prospect.Page, error)
}

type Handler struct {
	config    *Config
	pages     PageService
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(config *Config, pages PageService, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		pages:     pages,
		validator: validator,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:       time.Now,
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

// Execute returns PROSPECT_NOT_FOUND and PROSPECT_ACCESS_DENIED unchanged so
// the process can branch on them.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	page, err := h.pages.Page(ctx, input.Slug, input.Password)
	if err != nil {
		return nil, err
	}
	metrics.ProspectPagesBuilt.WithLabelValues(page.Industry).Inc()

	out := &Output{Page: page, Expired: prospect.IsExpired(page, h.now())}
	if expires, ok := prospect.ExpiresAt(page); ok {
		out.ExpiresAt = expires.Format("2006-01-02")
	}
	if out.Expired {
		h.logger.Info("Serving expired prospect page", map[string]interface{}{
			"slug":      page.Slug,
			"expiresAt": out.ExpiresAt,
		})
	}
	return out, nil
}
