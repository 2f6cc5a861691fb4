// Package metrics exposes planner counters on a dedicated Prometheus
// registry. A batch run writes them out in the node exporter textfile
// format.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"feedernet/internal/fleet"
	"feedernet/internal/graph"
	"feedernet/internal/opt"
)

var (
	// Registry is the dedicated Prometheus registry for the planner
	Registry = prometheus.NewRegistry()

	PlanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feeder_plan_runs_total", Help: "Planning runs by outcome."},
		[]string{"status"},
	)
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "feeder_stage_duration_seconds", Help: "Duration of each planning stage.", Buckets: prometheus.DefBuckets},
		[]string{"stage"},
	)
	RoutesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feeder_routes_generated_total", Help: "Routes generated, one per origin."},
	)
	RouteHops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "feeder_route_hops", Help: "Connections per generated route.", Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21}},
	)
	RouteLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "feeder_route_length_km", Help: "Length of generated routes in km.", Buckets: []float64{1, 2.5, 5, 10, 15, 20, 25}},
	)
	UnmatchedLookups = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feeder_unmatched_demand_lookups_total", Help: "Route connections without a travel demand cell."},
	)
	TotalFleet = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "feeder_total_fleet", Help: "Buses of the last computed plan."},
	)
	OverFleetLimit = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "feeder_over_fleet_limit", Help: "1 when the last plan exceeds the fleet limit."},
	)
)

var regOnce sync.Once

// RegisterDefault registers collectors to the planner registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(PlanRuns, StageDuration, RoutesGenerated, RouteHops, RouteLength,
			UnmatchedLookups, TotalFleet, OverFleetLimit)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRoutes records one generation run.
func ObserveRoutes(routes *opt.RouteSet, m opt.Metrics) {
	RoutesGenerated.Add(float64(m.Origins))
	for _, h := range m.RouteHops {
		RouteHops.Observe(float64(h))
	}
	routes.Each(func(_ graph.Station, route *graph.StopGraph) {
		RouteLength.Observe(route.TotalWeight())
	})
}

// ObservePlan records the outcome of fleet sizing.
func ObservePlan(plan *fleet.Plan) {
	TotalFleet.Set(float64(plan.TotalFleet))
	if plan.OverFleetLimit {
		OverFleetLimit.Set(1)
	} else {
		OverFleetLimit.Set(0)
	}
}

// CountUnmatched is the fleet engine hook for connections without demand.
func CountUnmatched(graph.Connection) { UnmatchedLookups.Inc() }

// WriteTextfile writes the registry to path for the node exporter textfile
// collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
