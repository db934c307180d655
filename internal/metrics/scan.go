package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan counters are incremented by the worker as jobs finish.
var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_jobs_total",
		Help: "Completed scan jobs by outcome",
	}, []string{"outcome"})

	ResourcesDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_resources_discovered_total",
		Help: "Cloud resources recorded by reconciliation runs, by type",
	}, []string{"resource_type"})
)
