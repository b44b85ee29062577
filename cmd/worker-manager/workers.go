package main

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/config"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"

	sca "prospect-composer/internal/workers/assessment/score-cre-assessment"
	rgp "prospect-composer/internal/workers/content/render-guide-pdf"
	cl "prospect-composer/internal/workers/leads/capture-lead"
	els "prospect-composer/internal/workers/leads/enroll-lead-sequence"
	hee "prospect-composer/internal/workers/leads/handle-email-event"
	nl "prospect-composer/internal/workers/leads/notify-lead"
	pse "prospect-composer/internal/workers/leads/process-sequence-emails"
	bpp "prospect-composer/internal/workers/prospect/build-prospect-page"
)

type workerSpec struct {
	taskType string
	handler  camunda.JobHandler
}

// buildWorkers creates a handler for every task type the manager knows,
// enabled or not.
func buildWorkers(cfg *config.Config, s *services, obs *observability.Observability, log logger.Logger) []workerSpec {
	return []workerSpec{
		{
			taskType: bpp.TaskType,
			handler:  bpp.NewHandler(bpp.LoadConfig(cfg.Workers[bpp.TaskType]), s.pages, s.validator, obs, log),
		},
		{
			taskType: rgp.TaskType,
			handler:  rgp.NewHandler(rgp.LoadConfig(cfg.Workers[rgp.TaskType]), s.guides, s.validator, obs, log),
		},
		{
			taskType: sca.TaskType,
			handler:  sca.NewHandler(sca.LoadConfig(cfg.Workers[sca.TaskType]), s.validator, obs, log),
		},
		{
			taskType: cl.TaskType,
			handler:  cl.NewHandler(cl.LoadConfig(cfg.Workers[cl.TaskType], cfg), s.leads, s.validator, obs, log),
		},
		{
			taskType: nl.TaskType,
			handler:  nl.NewHandler(nl.LoadConfig(cfg.Workers[nl.TaskType]), s.leads, s.notifier, s.validator, obs, log),
		},
		{
			taskType: els.TaskType,
			handler:  els.NewHandler(els.LoadConfig(cfg.Workers[els.TaskType]), s.leads, s.sequences, s.validator, obs, log),
		},
		{
			taskType: pse.TaskType,
			handler:  pse.NewHandler(pse.LoadConfig(cfg.Workers[pse.TaskType]), s.sequences, s.validator, obs, log),
		},
		{
			taskType: hee.TaskType,
			handler:  hee.NewHandler(hee.LoadConfig(cfg.Workers[hee.TaskType]), s.leads, s.sequences, s.validator, obs, log),
		},
	}
}

func startWorkers(client zbc.Client, cfg *config.Config, specs []workerSpec, log logger.Logger) []*camunda.Worker {
	var workers []*camunda.Worker
	for _, spec := range specs {
		if w := startWorker(client, spec, cfg.Workers[spec.taskType], cfg.Camunda.MaxJobsActive, log); w != nil {
			workers = append(workers, w)
		}
	}
	return workers
}

// startWorker returns nil for a disabled worker. A worker without its own
// max_jobs_active falls back to the camunda section.
func startWorker(client zbc.Client, spec workerSpec, wcfg config.WorkerConfig, defaultMaxJobs int, log logger.Logger) *camunda.Worker {
	if !wcfg.Enabled {
		log.Info("Worker disabled", map[string]interface{}{"taskType": spec.taskType})
		return nil
	}

	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = defaultMaxJobs
	}
	return camunda.NewWorker(client, spec.taskType, camunda.WorkerOptions{
		MaxJobsActive: maxJobs,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, spec.handler, log)
}

func stopWorkers(workers []*camunda.Worker) {
	for _, w := range workers {
		w.Stop()
	}
}
