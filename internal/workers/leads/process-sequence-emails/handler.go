package processsequenceemails

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/sequences"
)

const TaskType = "process-sequence-emails"

// Processor is satisfied by sequences.Service.
type Processor interface {
	Process(ctx context.Context) (*sequences.Result, error)
}

type Handler struct {
	config    *Config
	processor Processor
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, processor Processor, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		processor: processor,
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

// Execute sends every sequence email that is due. Per-lead failures are
// reported in the output and retried by the next run.
func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	result, err := h.processor.Process(ctx)
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		h.logger.Warn("Some sequence emails failed", map[string]interface{}{
			"failed": len(result.Errors),
			"sent":   result.EmailsSent,
		})
	}
	return &Output{Result: *result}, nil
}
