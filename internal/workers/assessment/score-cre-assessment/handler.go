package scorecreassessment

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"prospect-composer/internal/assessment"
	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
)

const TaskType = "score-cre-assessment"

type Handler struct {
	config    *Config
	validator camunda.InputValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, validator camunda.InputValidator, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	scores, err := assessment.Score(input.Answers, input.Profile)
	if err != nil {
		return nil, err
	}
	desc, _ := assessment.Describe(scores.Tier)

	h.logger.Info("Assessment scored", map[string]interface{}{
		"company": input.Profile.CompanyName,
		"total":   scores.Total,
		"tier":    string(scores.Tier),
	})
	return &Output{
		Scores:          scores,
		AssessmentScore: scores.Total,
		AssessmentTier:  string(scores.Tier),
		TierDescription: desc,
	}, nil
}
