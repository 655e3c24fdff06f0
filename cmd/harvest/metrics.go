package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	requests *prometheus.CounterVec
	crawls   *prometheus.CounterVec
	posts    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvest_api_requests_total",
			Help: "RapidAPI requests by endpoint and outcome.",
		}, []string{"endpoint", "success", "rate_limited"}),
		crawls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvest_crawls_total",
			Help: "Timeline crawls by result.",
		}, []string{"result"}),
		posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvest_posts_total",
			Help: "Posts saved across all crawls.",
		}),
	}
	reg.MustRegister(m.requests, m.crawls, m.posts)
	return m
}

// hook matches twitter.ClientConfig.MetricsHook.
func (m *metrics) hook(endpoint string, success, rateLimited bool) {
	m.requests.WithLabelValues(endpoint, strconv.FormatBool(success), strconv.FormatBool(rateLimited)).Inc()
}

func (m *metrics) crawlDone(posts int, err error) {
	if err != nil {
		m.crawls.WithLabelValues("error").Inc()
		return
	}
	m.crawls.WithLabelValues("ok").Inc()
	m.posts.Add(float64(posts))
}

// serveMetrics exposes /metrics on addr until the process exits.
func serveMetrics(addr string, reg prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", slog.Any("error", err))
		}
	}()
	slog.Info("metrics listening", slog.String("addr", addr))
}
