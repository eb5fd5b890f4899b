package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/reflex/pkg/domain"
)

const namespace = "reflex"

// Metrics holds the Prometheus collectors for one engine.
type Metrics struct {
	ticks          *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	ruleMatches    *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	dropped        prometheus.Counter
	reloads        prometheus.Counter
	skippedRules   prometheus.Gauge
	activeRules    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "ticks_total",
			Help:      "Evaluation passes by outcome (ok, aborted)",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one evaluation pass including synchronous actions",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "matches_total",
			Help:      "Rules whose condition held, by execution mode (sync, foreground)",
		}, []string{"mode"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "total",
			Help:      "Evaluated actions by receiver, method and status",
		}, []string{"receiver", "method", "status"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "duration_seconds",
			Help:      "Duration of action evaluations by receiver",
			Buckets:   prometheus.DefBuckets,
		}, []string{"receiver"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "dropped_total",
			Help:      "Matched rules whose actions were dropped by a full foreground queue",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "reloads_total",
			Help:      "Rule set swaps",
		}),
		skippedRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "skipped",
			Help:      "Rule blocks dropped by the last reload",
		}),
		activeRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "active",
			Help:      "Rules in the running rule set",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.ticks, m.tickDuration, m.ruleMatches, m.actions,
		m.actionDuration, m.dropped, m.reloads, m.skippedRules, m.activeRules,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTick: func(_ context.Context, e *domain.TickEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "aborted"
			}
			m.ticks.WithLabelValues(outcome).Inc()
			m.tickDuration.Observe(e.Duration.Seconds())
		},
		OnRuleMatch: func(_ context.Context, e *domain.RuleEvent) {
			mode := "foreground"
			if e.Synchronous {
				mode = "sync"
			}
			m.ruleMatches.WithLabelValues(mode).Inc()
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			receiver, method := target(e.Expr)
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.actions.WithLabelValues(receiver, method, status).Inc()
			m.actionDuration.WithLabelValues(receiver).Observe(e.Duration.Seconds())
		},
		OnActionsDropped: func(context.Context, *domain.RuleEvent) {
			m.dropped.Inc()
		},
		OnReload: func(_ context.Context, e *domain.ReloadEvent) {
			m.reloads.Inc()
			m.skippedRules.Set(float64(e.Errors))
			m.activeRules.Set(float64(e.Rules))
		},
	}
}

// target labels an action by its call target. Non-call actions share one label.
func target(expr domain.Expression) (string, string) {
	if call, ok := expr.(domain.FunctionCall); ok {
		return call.Receiver, call.Method
	}
	return "expression", ""
}
