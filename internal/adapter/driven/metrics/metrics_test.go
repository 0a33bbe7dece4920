package metrics_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

type stubCatalog struct {
	models []model.SupportedModel
	err    error
}

func (s stubCatalog) FetchModels(context.Context, string) ([]model.SupportedModel, error) {
	return s.models, s.err
}

type stubUpstream struct {
	err error
}

func (s stubUpstream) SupportedModels(context.Context, string) ([]model.UpstreamModel, error) {
	return nil, s.err
}

func (s stubUpstream) CreateTrainingClient(context.Context, string, string) error {
	return s.err
}

func TestInstrumentCatalog_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := m.InstrumentCatalog(stubCatalog{models: []model.SupportedModel{{Name: "a"}}})
	rejected := m.InstrumentCatalog(stubCatalog{err: &driven.RejectedError{StatusCode: 401}})
	broken := m.InstrumentCatalog(stubCatalog{err: errors.New("dial tcp: refused")})

	models, err := ok.FetchModels(context.Background(), "k")
	require.NoError(t, err)
	assert.Len(t, models, 1)
	_, _ = rejected.FetchModels(context.Background(), "k")
	_, _ = rejected.FetchModels(context.Background(), "k")
	_, err = broken.FetchModels(context.Background(), "k")
	assert.EqualError(t, err, "dial tcp: refused")

	expected := `
# HELP tinkerstudio_model_fetches_total Model browser fetches by outcome.
# TYPE tinkerstudio_model_fetches_total counter
tinkerstudio_model_fetches_total{outcome="error"} 1
tinkerstudio_model_fetches_total{outcome="rejected"} 2
tinkerstudio_model_fetches_total{outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tinkerstudio_model_fetches_total"))
	count, err := testutil.GatherAndCount(reg, "tinkerstudio_model_fetch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInstrumentUpstream_CountsByOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := m.InstrumentUpstream(stubUpstream{err: &driven.UpstreamStatusError{Operation: "x", StatusCode: 403}})
	_, _ = svc.SupportedModels(context.Background(), "k")
	_ = m.InstrumentUpstream(stubUpstream{}).CreateTrainingClient(context.Background(), "k", "base")

	count, err := testutil.GatherAndCount(reg, "tinkerstudio_upstream_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestObserveOpenPages(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	open := 3
	m.ObserveOpenPages(func() int { return open })

	expected := `
# HELP tinkerstudio_open_pages Browser pages currently held in memory.
# TYPE tinkerstudio_open_pages gauge
tinkerstudio_open_pages 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tinkerstudio_open_pages"))
}
