package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the bot's prometheus metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	BackendRequests *prometheus.CounterVec   // endpoint, outcome
	BackendDuration *prometheus.HistogramVec // endpoint

	Messages        *prometheus.CounterVec // route
	HandlerFailures *prometheus.CounterVec // handler
	RateLimited     prometheus.Counter
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emtbot_backend_requests_total",
			Help: "EMT backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emtbot_backend_request_duration_seconds",
			Help:    "Duration of EMT backend requests, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"endpoint"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emtbot_messages_total",
			Help: "Inbound chat messages by matched route.",
		}, []string{"route"}),
		HandlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emtbot_handler_failures_total",
			Help: "Handler invocations that ended with the generic apology reply.",
		}, []string{"handler"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emtbot_rate_limited_total",
			Help: "Inbound messages dropped by the per-chat rate limit.",
		}),
	}

	reg.MustRegister(c.BackendRequests, c.BackendDuration, c.Messages, c.HandlerFailures, c.RateLimited)

	return c
}

// ObserveRequest implements emt.Metrics.
func (c *Collector) ObserveRequest(endpoint, outcome string, d time.Duration) {
	c.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	c.BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// MessageRouted implements bot.Metrics.
func (c *Collector) MessageRouted(route string) { c.Messages.WithLabelValues(route).Inc() }

// HandlerFailed implements bot.Metrics.
func (c *Collector) HandlerFailed(handler string) { c.HandlerFailures.WithLabelValues(handler).Inc() }

// MessageRateLimited implements bot.Metrics.
func (c *Collector) MessageRateLimited() { c.RateLimited.Inc() }

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()
	logger.Info("metrics listening", "addr", addr)
	return srv
}
