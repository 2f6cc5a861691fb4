// Package fleet sizes the bus fleet of each feeder route from the travel
// demand between its stops.
package fleet

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"feedernet/internal/graph"
	"feedernet/internal/matrix"
	"feedernet/internal/opt"
)

// ErrDegenerateRoute marks inputs for which a headway or passenger share is
// not a finite positive number.
var ErrDegenerateRoute = errors.New("degenerate route")

// Values and Counts are per-origin results.
type (
	Values map[graph.Station]float64
	Counts map[graph.Station]int
)

type Engine struct {
	cfg    Config
	demand *matrix.PairIndex
	logger *slog.Logger
	onMiss func(graph.Connection)
}

// NewEngine indexes the travel demand sheet. Headers of the sheet carry a
// kind suffix that is stripped before matching station names.
func NewEngine(cfg Config, travelDemand matrix.Table, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		demand: matrix.NewPairIndex(travelDemand, cfg.HeaderSuffixLen),
		logger: logger,
	}
}

func (e *Engine) Config() Config { return e.cfg }

// OnUnmatched registers fn to be called for every connection without a
// travel demand cell.
func (e *Engine) OnUnmatched(fn func(graph.Connection)) { e.onMiss = fn }

// RouteDemand lists the expanded demand of every connection of the route and
// a final floor entry. The second value counts connections that had no
// matching cell and so only count through the floor.
func (e *Engine) RouteDemand(route *graph.StopGraph) ([]int, int) {
	var out []int
	unmatched := 0
	for _, c := range route.Connections() {
		cells := e.demand.Values(c.Source.Name, c.Target.Name)
		if len(cells) == 0 {
			unmatched++
			e.logger.Warn("no travel demand for connection",
				slog.String("source", c.Source.Name),
				slog.String("target", c.Target.Name))
			if e.onMiss != nil {
				e.onMiss(c)
			}
			continue
		}
		for _, v := range cells {
			out = append(out, (v+1)*e.cfg.DemandMultiplier)
		}
	}
	out = append(out, e.cfg.DemandMultiplier)
	return out, unmatched
}

// Eligible returns the origins of routes that get a fleet, in route order.
func (e *Engine) Eligible(routes *opt.RouteSet) []graph.Station {
	var out []graph.Station
	for _, o := range routes.Origins() {
		if o.Metro && o.Demand >= e.cfg.OriginDemandThreshold {
			out = append(out, o)
		}
	}
	return out
}

type facts struct {
	length    float64
	stops     int
	factor    float64
	demand    []int
	total     int
	max       int
	unmatched int
}

type snapshot struct {
	origins []graph.Station
	facts   map[graph.Station]facts
}

func (e *Engine) snapshot(routes *opt.RouteSet) snapshot {
	s := snapshot{origins: e.Eligible(routes), facts: map[graph.Station]facts{}}
	for _, o := range s.origins {
		route, _ := routes.Route(o)
		f := facts{length: RouteLength(route), stops: StopCount(route)}
		f.factor = e.cfg.TravelTimeFactor(f.length)
		f.demand, f.unmatched = e.RouteDemand(route)
		for _, d := range f.demand {
			f.total += d
			if d > f.max {
				f.max = d
			}
		}
		s.facts[o] = f
	}
	return s
}

func degenerate(o graph.Station, what string, v float64) error {
	return fmt.Errorf("%s: %s is %v: %w", o.Name, what, v, ErrDegenerateRoute)
}

func usable(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

func (e *Engine) passengers(s snapshot) (Values, error) {
	sum := 0.0
	for _, o := range s.origins {
		sum += s.facts[o].factor
	}
	out := Values{}
	if len(s.origins) == 0 {
		return out, nil
	}
	if !usable(sum) {
		return nil, fmt.Errorf("travel time factors sum to %v: %w", sum, ErrDegenerateRoute)
	}
	for _, o := range s.origins {
		f := s.facts[o]
		p := f.factor / sum * float64(f.total)
		if !usable(p) {
			return nil, degenerate(o, "passengers", p)
		}
		out[o] = p
	}
	return out, nil
}

func (e *Engine) costHeadway(s snapshot, passengers Values) (Values, error) {
	out := Values{}
	for _, o := range s.origins {
		f := s.facts[o]
		h := e.cfg.CostHeadway(f.length, f.stops, passengers[o])
		if !usable(h) {
			return nil, degenerate(o, "cost headway", h)
		}
		out[o] = h
	}
	return out, nil
}

func (e *Engine) capacityHeadway(s snapshot) (Values, error) {
	out := Values{}
	for _, o := range s.origins {
		f := s.facts[o]
		if f.max <= 0 {
			return nil, degenerate(o, "max connection demand", float64(f.max))
		}
		h := e.cfg.CapacityHeadway(f.max)
		if !usable(h) {
			return nil, degenerate(o, "capacity headway", h)
		}
		out[o] = h
	}
	return out, nil
}

func (e *Engine) fleetSizes(s snapshot, headway Values) Counts {
	out := Counts{}
	for _, o := range s.origins {
		f := s.facts[o]
		out[o] = e.cfg.FleetSize(f.length, f.stops, headway[o])
	}
	return out
}

func (e *Engine) adjustedHeadways(s snapshot, fleet Counts) Values {
	out := Values{}
	for _, o := range s.origins {
		f := s.facts[o]
		if h, ok := e.cfg.AdjustedHeadway(f.length, f.stops, fleet[o]); ok {
			out[o] = h
		}
	}
	return out
}

func (e *Engine) adjustFleetSizes(s snapshot, fleet Counts, adjusted Values) Counts {
	out := Counts{}
	for _, o := range s.origins {
		h, ok := adjusted[o]
		out[o] = e.cfg.AdjustFleet(fleet[o], s.facts[o].max, h, ok)
	}
	return out
}

// PassengersPerRoute shares the demand of each route by its travel time
// factor relative to the whole network.
func (e *Engine) PassengersPerRoute(routes *opt.RouteSet) (Values, error) {
	return e.passengers(e.snapshot(routes))
}

func (e *Engine) CostHeadways(routes *opt.RouteSet) (Values, error) {
	s := e.snapshot(routes)
	p, err := e.passengers(s)
	if err != nil {
		return nil, err
	}
	return e.costHeadway(s, p)
}

func (e *Engine) CapacityHeadways(routes *opt.RouteSet) (Values, error) {
	return e.capacityHeadway(e.snapshot(routes))
}

// Headways takes the smaller of the cost and capacity headways per route.
func (e *Engine) Headways(routes *opt.RouteSet) (Values, error) {
	return e.headways(e.snapshot(routes))
}

func (e *Engine) headways(s snapshot) (Values, error) {
	p, err := e.passengers(s)
	if err != nil {
		return nil, err
	}
	h1, err := e.costHeadway(s, p)
	if err != nil {
		return nil, err
	}
	h2, err := e.capacityHeadway(s)
	if err != nil {
		return nil, err
	}
	out := Values{}
	for _, o := range s.origins {
		out[o] = math.Min(h1[o], h2[o])
	}
	return out, nil
}

// FleetSizes is the fleet of each route before adjustment.
func (e *Engine) FleetSizes(routes *opt.RouteSet) (Counts, error) {
	s := e.snapshot(routes)
	h, err := e.headways(s)
	if err != nil {
		return nil, err
	}
	return e.fleetSizes(s, h), nil
}

// AdjustedHeadways solves the fleet formula for one bus fewer. Routes that
// already run a single bus have no entry.
func (e *Engine) AdjustedHeadways(routes *opt.RouteSet, fleet Counts) Values {
	return e.adjustedHeadways(e.snapshot(routes), fleet)
}

// AdjustFleetSizes applies the one-bus reduction where the busiest connection
// stays within the maximum bus capacity.
func (e *Engine) AdjustFleetSizes(routes *opt.RouteSet, fleet Counts, adjusted Values) Counts {
	return e.adjustFleetSizes(e.snapshot(routes), fleet, adjusted)
}

// Compute runs the whole pipeline once and returns the per-route breakdown.
func (e *Engine) Compute(routes *opt.RouteSet) (*Plan, error) {
	s := e.snapshot(routes)
	p, err := e.passengers(s)
	if err != nil {
		return nil, err
	}
	h1, err := e.costHeadway(s, p)
	if err != nil {
		return nil, err
	}
	h2, err := e.capacityHeadway(s)
	if err != nil {
		return nil, err
	}
	headway := Values{}
	for _, o := range s.origins {
		headway[o] = math.Min(h1[o], h2[o])
	}
	fleet := e.fleetSizes(s, headway)
	adjusted := e.adjustedHeadways(s, fleet)
	final := e.adjustFleetSizes(s, fleet, adjusted)

	plan := &Plan{}
	for _, o := range s.origins {
		f := s.facts[o]
		adj, reducible := adjusted[o]
		plan.Routes = append(plan.Routes, RouteSizing{
			Origin:            o,
			LengthKm:          f.length,
			Stops:             f.stops,
			TravelTimeFactor:  f.factor,
			Demand:            f.demand,
			MaxDemand:         f.max,
			Passengers:        p[o],
			CostHeadway:       h1[o],
			CapacityHeadway:   h2[o],
			Headway:           headway[o],
			FleetSize:         fleet[o],
			AdjustedHeadway:   adj,
			Reducible:         reducible,
			AdjustedFleetSize: final[o],
			UnmatchedLookups:  f.unmatched,
		})
		plan.TotalFleet += final[o]
		plan.UnmatchedLookups += f.unmatched
	}
	if e.cfg.MaxFleetSize > 0 && plan.TotalFleet > e.cfg.MaxFleetSize {
		plan.OverFleetLimit = true
		e.logger.Warn("total fleet exceeds limit",
			slog.Int("total_fleet", plan.TotalFleet),
			slog.Int("max_fleet", e.cfg.MaxFleetSize))
	}
	return plan, nil
}
