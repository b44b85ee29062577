package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"prospect-composer/internal/common/logger"
)

// JobHandler is implemented by every task worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Concurrency   int
}

// Worker is an open Zeebe job worker for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, log logger.Logger) *Worker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name("prospect-composer-" + taskType)
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Concurrency > 0 {
		step = step.Concurrency(opts.Concurrency)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &Worker{
		worker:   step.Open(),
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("Worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs. The Zeebe client
// is owned by the caller.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
