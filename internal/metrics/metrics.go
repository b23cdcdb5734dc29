package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watermark_jobs_processed_total",
			Help: "Total number of watermark jobs processed, labeled by terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "watermark_job_duration_seconds",
			Help:    "Wall-clock duration of a single watermark job attempt.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	jobsRetriedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watermark_jobs_retried_total",
			Help: "Total number of failed jobs re-enqueued for another attempt.",
		},
	)

	uploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watermark_uploads_total",
			Help: "Total number of accepted image uploads.",
		},
	)
)

// MustRegister registers all collectors with Prometheus exactly once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(jobsProcessedTotal, jobDuration, jobsRetriedTotal, uploadsTotal)
	})
}

func IncJobProcessed(status string) { jobsProcessedTotal.WithLabelValues(status).Inc() }

func ObserveJobDuration(sec float64) { jobDuration.Observe(sec) }

func IncJobRetried() { jobsRetriedTotal.Inc() }

func IncUpload() { uploadsTotal.Inc() }
