package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
	"github.com/imovia/fluxo/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vistaFlow() *domain.Definition {
	b := dsl.New()
	b.Add("start").Start().Go("msg")
	b.Add("msg").Message("Olá {{nome}}").Go("vista")
	b.Add("vista").UpdateVista(map[string]string{"status": "lead"}).Go("end")
	b.Add("end").End("Tchau")
	return b.MustBuild()
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	run := fluxo.New(vistaFlow(), domain.RunConfig{ContactName: "Ana"}, fluxo.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, run.Start(context.Background()))
	require.Equal(t, domain.StatusCompleted, run.Status())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("action")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.NodeFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EffectDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues(string(domain.StatusCompleted))))

	count, err := testutil.GatherAndCount(reg, "fluxo_node_visits_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMetrics_NilRegisterer(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnStatusChange(context.Background(), &domain.StatusEvent{To: domain.StatusError})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues("error")))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	run := fluxo.New(vistaFlow(), domain.RunConfig{}, fluxo.WithID("r-1"), fluxo.WithLifecycleHooks(observability.LoggingHooks(logger)))
	require.NoError(t, run.Start(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "node_enter")
	assert.Contains(t, out, "effect_return")
	assert.Contains(t, out, "run_id=r-1")
	assert.Contains(t, out, "to=completed")
}
