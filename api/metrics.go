package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/scribe/job"
)

// Metrics counts submitted batches and job outcomes.
type Metrics struct {
	batches *prometheus.CounterVec
	jobs    *prometheus.CounterVec
}

// NewMetrics creates the submission counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_batches_total",
				Help: "Total number of submitted batches by source",
			},
			[]string{"source"},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_batch_jobs_total",
				Help: "Total number of finished jobs by outcome code",
			},
			[]string{"code"},
		),
	}
	reg.MustRegister(m.batches, m.jobs)
	return m
}

func (m *Metrics) record(source string, results []job.Result) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(source).Inc()
	for _, r := range results {
		code := "OK"
		if r.Failure != nil {
			code = string(r.Failure.Code)
		}
		m.jobs.WithLabelValues(code).Inc()
	}
}
