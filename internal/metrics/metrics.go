// Package metrics exports game activity and economy state to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/engine"
	"github.com/talgya/planetary-ascension/internal/resource"
)

// ─── Tick Loop ──────────────────────────────────────────────────────────────

var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planetsim",
	Subsystem: "engine",
	Name:      "ticks_total",
	Help:      "Ticks applied to the economy.",
})

var TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "planetsim",
	Subsystem: "engine",
	Name:      "tick_duration_seconds",
	Help:      "Wall time spent applying one tick.",
	Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
})

// ─── Player Actions ─────────────────────────────────────────────────────────

var Purchases = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planetsim",
	Subsystem: "economy",
	Name:      "purchases_total",
	Help:      "Building purchase attempts by building and outcome.",
}, []string{"building", "outcome"})

var Research = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planetsim",
	Subsystem: "economy",
	Name:      "research_total",
	Help:      "Research attempts by technology and outcome.",
}, []string{"technology", "outcome"})

var Upgrades = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planetsim",
	Subsystem: "economy",
	Name:      "upgrades_total",
	Help:      "Upgrade attempts by resource, kind, and outcome.",
}, []string{"resource", "kind", "outcome"})

var Milestones = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planetsim",
	Subsystem: "economy",
	Name:      "phase_milestones_total",
	Help:      "Phase technologies reached.",
})

// ─── Economy State ──────────────────────────────────────────────────────────

var ResourceValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "planetsim",
	Subsystem: "resource",
	Name:      "value",
	Help:      "Current stock per resource.",
}, []string{"resource"})

var ResourceProduction = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "planetsim",
	Subsystem: "resource",
	Name:      "production_per_second",
	Help:      "Production rate per resource.",
}, []string{"resource"})

var ResourceMax = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "planetsim",
	Subsystem: "resource",
	Name:      "max",
	Help:      "Capacity per resource.",
}, []string{"resource"})

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Observe counts a game event. Register it with Hub.Observe.
func Observe(e engine.Event) {
	switch e.Kind {
	case engine.KindBuild, engine.KindBuildFailed:
		Purchases.WithLabelValues(metaString(e, "building"), outcome(e)).Inc()
	case engine.KindResearch, engine.KindResearchFailed:
		Research.WithLabelValues(metaString(e, "technology"), outcome(e)).Inc()
	case engine.KindUpgrade, engine.KindUpgradeFailed:
		Upgrades.WithLabelValues(metaString(e, "resource"), metaString(e, "kind"), outcome(e)).Inc()
	case engine.KindPhase:
		Milestones.Inc()
	}
}

// SampleAccounts sets the resource gauges.
func SampleAccounts(accounts [resource.Count]economy.Account) {
	for _, id := range resource.All() {
		a := accounts[id]
		name := id.String()
		ResourceValue.WithLabelValues(name).Set(a.Value)
		ResourceProduction.WithLabelValues(name).Set(a.Production)
		ResourceMax.WithLabelValues(name).Set(a.Max)
	}
}

// RegisterEngine exports the engine's skipped-tick counter and speed.
// Call once per process.
func RegisterEngine(e *engine.Engine, hub *engine.Hub) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "planetsim",
		Subsystem: "engine",
		Name:      "ticks_skipped_total",
		Help:      "Ticks dropped because the previous step was still running.",
	}, func() float64 { return float64(e.Skipped()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "planetsim",
		Subsystem: "engine",
		Name:      "speed",
		Help:      "Wall-clock speed multiplier (0 = paused).",
	}, e.Speed)

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "planetsim",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Event deliveries skipped because a subscriber was full.",
	}, func() float64 { return float64(hub.Dropped()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "planetsim",
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Live event subscriptions.",
	}, func() float64 { return float64(hub.Subscribers()) })
}

func outcome(e engine.Event) string {
	if e.Failed() {
		return outcomeFailed
	}
	return outcomeOK
}

func metaString(e engine.Event, key string) string {
	if s, ok := e.Meta[key].(string); ok {
		return s
	}
	return "unknown"
}
