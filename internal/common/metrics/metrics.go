package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "prospect_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prospect_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// GuidePDFs counts batch outcomes: generated, skipped or failed.
	GuidePDFs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guide_pdfs_total",
			Help: "Guide PDFs processed by outcome",
		},
		[]string{"outcome"},
	)

	PDFRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guide_pdf_render_duration_seconds",
			Help:    "Time spent in the headless browser per guide",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)

	ProspectPagesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_pages_built_total",
			Help: "Prospect pages assembled, by resolved industry",
		},
		[]string{"industry"},
	)

	LeadsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Leads captured by form type and tier",
		},
		[]string{"form_type", "tier"},
	)
)

// Outcome labels for GuidePDFs.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)
