package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"prospect-composer/internal/common/errors"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/metrics"
	"prospect-composer/internal/common/observability"
)

// commandTimeout bounds the complete/fail/throw call after a job has run, so
// a job that used up its own timeout can still be reported.
const commandTimeout = 10 * time.Second

// InputValidator checks raw job variables for a task type.
type InputValidator interface {
	ValidateInput(taskType string, variables map[string]interface{}) error
}

// Runtime is what RunJob needs from a handler.
type Runtime struct {
	TaskType      string
	Timeout       time.Duration
	Validator     InputValidator
	Logger        logger.Logger
	Observability *observability.Observability
}

// RunJob decodes the job variables into In, runs execute and completes the
// job with its output. Errors go through the shared ErrorHandler, which
// either fails the job for a retry or throws a BPMN error.
func RunJob[In any, Out any](client worker.JobClient, job entities.Job, rt Runtime, execute func(context.Context, *In) (*Out, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(rt.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(rt.TaskType).Dec()

	log := rt.Logger.WithFields(map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})
	log.Info("Processing job", nil)

	ctx, cancel := context.WithTimeout(context.Background(), rt.Timeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, rt.TaskType,
		attribute.Int64("zeebe.job_key", job.GetKey()),
		attribute.Int64("zeebe.process_instance_key", job.GetProcessInstanceKey()),
	)
	defer span.End()

	var output *Out
	input, err := DecodeInput[In](job, rt.TaskType, rt.Validator)
	if err == nil {
		output, err = execute(ctx, input)
	}

	reportCtx, reportCancel := context.WithTimeout(context.Background(), commandTimeout)
	defer reportCancel()

	if err != nil {
		code := string(errors.ErrCodeInternal)
		if stdErr, ok := errors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		metrics.WorkerJobsFailed.WithLabelValues(rt.TaskType, code).Inc()
		rt.Observability.RecordJobProcessed(ctx, rt.TaskType, "failed")
		rt.Observability.RecordJobDuration(ctx, rt.TaskType, time.Since(start), "failed")
		errors.NewErrorHandler(log).HandleJobError(reportCtx, client, job, err)
		return
	}

	if err := Complete(reportCtx, client, job, output); err != nil {
		log.Error("Failed to complete job", map[string]interface{}{"error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(rt.TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(rt.TaskType).Observe(time.Since(start).Seconds())
	rt.Observability.RecordJobProcessed(ctx, rt.TaskType, "completed")
	rt.Observability.RecordJobDuration(ctx, rt.TaskType, time.Since(start), "completed")
	log.Info("Job completed", map[string]interface{}{"durationMs": time.Since(start).Milliseconds()})
}

// DecodeInput validates the job variables against the task's input schema
// and decodes them into In.
func DecodeInput[In any](job entities.Job, taskType string, validator InputValidator) (*In, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError("variables are not a JSON object: " + err.Error())
	}
	if validator != nil {
		if err := validator.ValidateInput(taskType, vars); err != nil {
			return nil, err
		}
	}
	var in In
	if err := json.Unmarshal([]byte(job.GetVariables()), &in); err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}
	return &in, nil
}

// Complete sends the output as the job's variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}
