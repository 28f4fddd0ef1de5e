package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ventas"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requestDuration *prom.HistogramVec
	requests        *prom.CounterVec
	guardsMounted   prom.Counter
	guardsReady     prom.Counter
	guardsDiscarded *prom.CounterVec
	guardsLive      prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of page requests by route ID",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "method"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Page requests by route ID and status code",
		}, []string{"route", "method", "code"}),
		guardsMounted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_guards_mounted_total",
			Help:      "Hydration guards created",
		}),
		guardsReady: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_guards_ready_total",
			Help:      "Hydration guards that completed the transition to ready",
		}),
		guardsDiscarded: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_guards_discarded_total",
			Help:      "Pending hydration guards discarded before becoming ready",
		}, []string{"reason"}),
		guardsLive: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "hydration_guards_pending",
			Help:      "Hydration guards mounted but not yet ready",
		}),
	}
	reg.MustRegister(pr.requestDuration, pr.requests, pr.guardsMounted, pr.guardsReady,
		pr.guardsDiscarded, pr.guardsLive)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(route, method string, status int, d time.Duration) {
	p.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
	p.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) GuardMounted() {
	p.guardsMounted.Inc()
	p.guardsLive.Inc()
}

func (p *PrometheusRecorder) GuardReady() {
	p.guardsReady.Inc()
	p.guardsLive.Dec()
}

func (p *PrometheusRecorder) GuardDiscarded(reason string) {
	p.guardsDiscarded.WithLabelValues(reason).Inc()
	p.guardsLive.Dec()
}

// HTTPHandler returns an http.Handler that serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
