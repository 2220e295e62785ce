// Package metrics exposes Prometheus counters for registration admission and program writes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panelevent",
		Name:      "registration_attempts_total",
		Help:      "Public registration attempts by outcome (admitted or rejection reason).",
	}, []string{"outcome"})

	programWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panelevent",
		Name:      "program_writes_total",
		Help:      "Program write attempts by result.",
	}, []string{"result"})
)

// ObserveRegistration counts one registration attempt.
func ObserveRegistration(outcome string) {
	registrationAttempts.WithLabelValues(outcome).Inc()
}

// ObserveProgramWrite counts one program write attempt.
func ObserveProgramWrite(result string) {
	programWrites.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
