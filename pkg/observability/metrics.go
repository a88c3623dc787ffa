package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	Runs     *prometheus.CounterVec
	Findings *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conform_runs_total",
				Help: "Validate, normalize and check runs by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conform_findings_total",
				Help: "Findings reported by severity",
			},
			[]string{"operation", "severity"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conform_run_duration_seconds",
				Help:    "Duration of runs",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"operation"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Findings, m.Duration)
	}
	return m
}

// Hooks returns lifecycle hooks recording every run. When logger is not nil,
// rejected documents and failed runs are also logged.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFinding: func(ctx context.Context, ev *domain.RunEvent, f domain.Finding) {
			m.Findings.WithLabelValues(string(ev.Operation), string(f.Severity)).Inc()
		},
		OnRunEnd: func(ctx context.Context, ev *domain.RunEvent) {
			m.Runs.WithLabelValues(string(ev.Operation), outcome(ev)).Inc()
			m.Duration.WithLabelValues(string(ev.Operation)).Observe(ev.Duration.Seconds())

			if logger == nil {
				return
			}
			switch {
			case ev.Err != nil:
				logger.Warn("run_failed", "run_id", ev.RunID, "operation", ev.Operation, "schema", ev.Schema, "err", ev.Err)
			case domain.HasErrors(ev.Findings):
				errs, warnings := domain.Count(ev.Findings)
				logger.Info("document_rejected", "run_id", ev.RunID, "operation", ev.Operation, "schema", ev.Schema,
					"errors", errs, "warnings", warnings)
			}
		},
	}
}

func outcome(ev *domain.RunEvent) string {
	switch {
	case ev.Err != nil:
		return "failed"
	case domain.HasErrors(ev.Findings):
		return "rejected"
	}
	return "accepted"
}

// Merge chains hooks so several observers can watch one Checker.
func Merge(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, ev *domain.RunEvent) {
			for _, h := range all {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, ev)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, ev *domain.RunEvent) {
			for _, h := range all {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, ev)
				}
			}
		},
		OnFinding: func(ctx context.Context, ev *domain.RunEvent, f domain.Finding) {
			for _, h := range all {
				if h.OnFinding != nil {
					h.OnFinding(ctx, ev, f)
				}
			}
		},
	}
}
