package renderguidepdf

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	apperrors "prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/pdf"
)

const TaskType = "render-guide-pdf"

// Generator runs a guide PDF batch. pdf.Runner implements it.
type Generator interface {
	Run(ctx context.Context, slug string) (pdf.Summary, error)
}

type Handler struct {
	config    *Config
	generator Generator
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, generator Generator, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		generator: generator,
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

// Execute renders a single guide. A guide without content completes as
// skipped rather than failing the process.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	summary, err := h.generator.Run(ctx, input.Slug)
	switch {
	case errors.Is(err, pdf.ErrUnknownGuide):
		return nil, apperrors.NewGuideNotFoundError(input.Slug)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperrors.NewTimeoutError("render guide " + input.Slug)
	case err != nil:
		return nil, apperrors.NewPDFRenderFailedError(input.Slug, err)
	}

	out := &Output{Slug: input.Slug}
	switch {
	case summary.Failed > 0:
		return nil, apperrors.NewPDFRenderFailedError(input.Slug, summary.Failures[input.Slug])
	case summary.Skipped > 0:
		out.Skipped = true
	default:
		out.Generated = true
		out.Path = filepath.Join(summary.OutputDir, input.Slug+".pdf")
	}
	return out, nil
}
