// Package metrics instruments the driven ports with Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

const namespace = "tinkerstudio"

// Fetch outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the collectors registered for one server instance.
type Metrics struct {
	registerer      prometheus.Registerer
	catalogFetches  *prometheus.CounterVec
	catalogDuration prometheus.Histogram
	upstreamCalls   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registerer: reg,
		catalogFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fetches_total",
				Help:      "Model browser fetches by outcome.",
			},
			[]string{"outcome"},
		),
		catalogDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_fetch_duration_seconds",
				Help:      "Duration of model browser fetches.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Upstream service requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// ObserveOpenPages exports the number of open browser pages as reported by fn.
func (m *Metrics) ObserveOpenPages(fn func() int) {
	promauto.With(m.registerer).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_pages",
			Help:      "Browser pages currently held in memory.",
		},
		func() float64 { return float64(fn()) },
	)
}

// InstrumentCatalog wraps next so every fetch is counted and timed.
func (m *Metrics) InstrumentCatalog(next driven.ModelCatalog) driven.ModelCatalog {
	return &instrumentedCatalog{next: next, m: m}
}

// InstrumentUpstream wraps next so every upstream call is counted.
func (m *Metrics) InstrumentUpstream(next driven.TinkerService) driven.TinkerService {
	return &instrumentedUpstream{next: next, m: m}
}

type instrumentedCatalog struct {
	next driven.ModelCatalog
	m    *Metrics
}

func (c *instrumentedCatalog) FetchModels(ctx context.Context, credential string) ([]model.SupportedModel, error) {
	start := time.Now()
	models, err := c.next.FetchModels(ctx, credential)
	c.m.catalogDuration.Observe(time.Since(start).Seconds())
	c.m.catalogFetches.WithLabelValues(outcome(err)).Inc()
	return models, err
}

type instrumentedUpstream struct {
	next driven.TinkerService
	m    *Metrics
}

func (u *instrumentedUpstream) SupportedModels(ctx context.Context, apiKey string) ([]model.UpstreamModel, error) {
	models, err := u.next.SupportedModels(ctx, apiKey)
	u.m.upstreamCalls.WithLabelValues("get_server_capabilities", outcome(err)).Inc()
	return models, err
}

func (u *instrumentedUpstream) CreateTrainingClient(ctx context.Context, apiKey, baseModel string) error {
	err := u.next.CreateTrainingClient(ctx, apiKey, baseModel)
	u.m.upstreamCalls.WithLabelValues("create_training_client", outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	var statusErr *driven.UpstreamStatusError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, driven.ErrRequestRejected), errors.As(err, &statusErr):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
