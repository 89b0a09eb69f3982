package reporting

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

type counterFunc func(ctx context.Context) (map[catalog.PlanID]int64, error)

func (f counterFunc) CountByPlan(ctx context.Context) (map[catalog.PlanID]int64, error) {
	return f(ctx)
}

func newGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "subscriptions"}, []string{"plan"})
}

func TestRefresh(t *testing.T) {
	gauge := newGauge()
	counts := map[catalog.PlanID]int64{"builder": 4, "free": 2}
	r := NewReporter(counterFunc(func(ctx context.Context) (map[catalog.PlanID]int64, error) {
		return counts, nil
	}), catalog.NewStatic(catalog.Builder()), gauge, nil)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, float64(4), testutil.ToFloat64(gauge.WithLabelValues("builder")))
	assert.Equal(t, float64(2), testutil.ToFloat64(gauge.WithLabelValues("free")))
	assert.Equal(t, len(catalog.Builder().Plans), testutil.CollectAndCount(gauge), "every catalog plan is reported")

	counts = map[catalog.PlanID]int64{"retired": 1}
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge.WithLabelValues("builder")))
	assert.Equal(t, float64(1), testutil.ToFloat64(gauge.WithLabelValues("retired")), "plans outside the catalog still count")
}

func TestRefresh_ErrorKeepsPreviousValues(t *testing.T) {
	gauge := newGauge()
	fail := false
	r := NewReporter(counterFunc(func(ctx context.Context) (map[catalog.PlanID]int64, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return map[catalog.PlanID]int64{"builder": 3}, nil
	}), nil, gauge, nil)

	require.NoError(t, r.Refresh(context.Background()))
	fail = true
	assert.ErrorContains(t, r.Refresh(context.Background()), "connection refused")
	assert.Equal(t, float64(3), testutil.ToFloat64(gauge.WithLabelValues("builder")))
}

func TestStart(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.DebugLevel, &buf)
	calls := 0
	r := NewReporter(counterFunc(func(ctx context.Context) (map[catalog.PlanID]int64, error) {
		calls++
		return map[catalog.PlanID]int64{}, nil
	}), nil, newGauge(), logger)

	assert.Error(t, r.Start(context.Background(), "not a schedule"))

	require.NoError(t, r.Start(context.Background(), "@every 1h"))
	assert.Equal(t, 1, calls, "refreshes immediately")
	require.NoError(t, r.Stop(context.Background()))
	assert.Contains(t, buf.String(), "Subscription reporting scheduled")
}
