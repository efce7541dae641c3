// Package metrics exposes Prometheus counters for registrations, uploads and
// verification decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Registrations  *prometheus.CounterVec
	CodeCollisions prometheus.Counter
	Uploads        *prometheus.CounterVec
	Rollbacks      *prometheus.CounterVec
	Verifications  *prometheus.CounterVec
	CodeChecks     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry so that several instances
// can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_local_registrations_total",
			Help: "Local registration attempts by outcome.",
		}, []string{"outcome"}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "backpack_referral_code_collisions_total",
			Help: "Generated referral codes rejected by the unique index.",
		}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_visitor_uploads_total",
			Help: "Visitor ticket uploads by outcome.",
		}, []string{"outcome"}),
		Rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_upload_rollbacks_total",
			Help: "Stored tickets discarded after a failed upload, by result.",
		}, []string{"result"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_verifications_total",
			Help: "Applied verification actions by resulting status.",
		}, []string{"status"}),
		CodeChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_code_checks_total",
			Help: "validate-code lookups by result.",
		}, []string{"valid"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
