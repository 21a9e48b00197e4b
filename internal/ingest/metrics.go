package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petcare_ingest_commit_retries_total",
		Help: "Commits retried after a concurrent update of the pet.",
	})

	commitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petcare_ingest_commit_failures_total",
		Help: "Ingestions that failed to commit.",
	})
)
