// Package reporting refreshes the plan-distribution gauge on a cron schedule.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

// DefaultSchedule refreshes every five minutes
const DefaultSchedule = "*/5 * * * *"

// PlanCounter counts billing records per plan
type PlanCounter interface {
	CountByPlan(ctx context.Context) (map[catalog.PlanID]int64, error)
}

// Reporter publishes subscription counts to a gauge labelled by plan
type Reporter struct {
	counter PlanCounter
	source  catalog.Source
	gauge   *prometheus.GaugeVec
	logger  *observability.Logger
	timeout time.Duration
	cron    *cron.Cron
}

// NewReporter creates a reporter writing to gauge. Plans of the current catalog with no records
// are reported as zero.
func NewReporter(counter PlanCounter, source catalog.Source, gauge *prometheus.GaugeVec, logger *observability.Logger) *Reporter {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Reporter{
		counter: counter,
		source:  source,
		gauge:   gauge,
		logger:  logger.WithField("component", "reporting"),
		timeout: 30 * time.Second,
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
	}
}

// Refresh queries the counts once and replaces the gauge contents
func (r *Reporter) Refresh(ctx context.Context) error {
	counts, err := r.counter.CountByPlan(ctx)
	if err != nil {
		return fmt.Errorf("failed to count subscriptions: %w", err)
	}

	r.gauge.Reset()
	if r.source != nil {
		for _, plan := range r.source.Current().Plans {
			r.gauge.WithLabelValues(string(plan.ID)).Set(0)
		}
	}
	for plan, n := range counts {
		r.gauge.WithLabelValues(string(plan)).Set(float64(n))
	}
	return nil
}

// Start refreshes immediately and then on schedule, a standard five-field cron expression
func (r *Reporter) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.run(ctx) }); err != nil {
		return fmt.Errorf("invalid reporting schedule %q: %w", schedule, err)
	}

	r.run(ctx)
	r.cron.Start()
	r.logger.WithField("schedule", schedule).Info("Subscription reporting scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish
func (r *Reporter) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Warn("Subscription refresh failed")
		return
	}
	r.logger.Debug("Subscription gauge refreshed")
}

// cronLogger adapts the structured logger to cron.Logger
type cronLogger struct {
	logger *observability.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
