package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	pages          prom.Gauge
	deadLinks      prom.Gauge
	renderFailures *prom.CounterVec
	refreshes      prom.Counter
	clients        prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "ter",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "ter",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "ter",
			Name:      "pages",
			Help:      "Content pages rendered by the last build",
		}),
		deadLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: "ter",
			Name:      "dead_links",
			Help:      "Dead internal links found by the last build",
		}),
		renderFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "ter",
			Name:      "render_failures_total",
			Help:      "Outputs skipped because rendering failed",
		}, []string{"kind"}),
		refreshes: prom.NewCounter(prom.CounterOpts{
			Namespace: "ter",
			Name:      "refresh_broadcasts_total",
			Help:      "Refresh signals broadcast to live-reload clients",
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "ter",
			Name:      "refresh_clients",
			Help:      "Connected live-reload clients",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pages, pr.deadLinks, pr.renderFailures, pr.refreshes, pr.clients)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPages(n int) {
	p.pages.Set(float64(n))
}

func (p *PrometheusRecorder) SetDeadLinks(n int) {
	p.deadLinks.Set(float64(n))
}

func (p *PrometheusRecorder) IncRenderFailure(kind string) {
	p.renderFailures.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRefresh() {
	p.refreshes.Inc()
}

func (p *PrometheusRecorder) SetClients(n int) {
	p.clients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
