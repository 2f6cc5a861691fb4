// Package opt builds feeder routes: one greedy chain per qualifying metro
// station, grown hop by hop over the stop graph.
package opt

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"feedernet/internal/graph"
)

type Config struct {
	MinConnectionKm       float64 // connections at or below this are ignored
	MaxRouteKm            float64 // route length budget
	OriginDemandThreshold int     // metro demand needed to anchor a route
	Workers               int     // parallel origins in Generate
}

func DefaultConfig() Config {
	return Config{
		MinConnectionKm:       1.0,
		MaxRouteKm:            25.0,
		OriginDemandThreshold: 7,
		Workers:               4,
	}
}

type Generator struct {
	cfg    Config
	logger *slog.Logger
}

func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

func (g *Generator) Config() Config { return g.cfg }

// OriginCandidates returns the metro stations whose demand reaches the
// threshold, in graph order.
func (g *Generator) OriginCandidates(sg *graph.StopGraph) []graph.Station {
	var out []graph.Station
	for _, s := range sg.Stations() {
		if s.Metro && s.Demand >= g.cfg.OriginDemandThreshold {
			out = append(out, s)
		}
	}
	return out
}

// GenerateRoute grows the route of origin over a private copy of sg. Each
// visited station is removed from the copy once the route leaves it, so the
// chain never comes back. Returns the route and its length in km.
func (g *Generator) GenerateRoute(sg *graph.StopGraph, origin graph.Station, candidates Candidates) (*graph.StopGraph, float64) {
	route := graph.NewStopGraph()
	route.AddStation(origin)
	work := sg.Clone()

	cur := origin
	km := 0.0
	for {
		next, ok := SelectNextStop(work.Outgoing(cur), candidates, km, g.cfg)
		if !ok {
			break
		}
		route.AddStation(next.Target)
		// both endpoints are in route and cur has no other out edge there
		_ = route.AddConnection(next)
		km += next.Weight
		work.RemoveStation(cur)
		cur = next.Target
	}
	return route, km
}

// Generate builds the route of every origin candidate. Origins run in
// parallel, but the result keeps candidate order.
func (g *Generator) Generate(ctx context.Context, sg *graph.StopGraph) (*RouteSet, Metrics, error) {
	start := time.Now()
	origins := g.OriginCandidates(sg)
	candidates := NewCandidates(origins)

	type result struct {
		route *graph.StopGraph
		km    float64
	}
	results := make([]result, len(origins))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, origin := range origins {
		i, origin := i, origin
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			route, km := g.GenerateRoute(sg, origin, candidates)
			results[i] = result{route: route, km: km}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, Metrics{}, err
	}

	rs := NewRouteSet()
	m := Metrics{Origins: len(origins), Workers: g.cfg.Workers}
	for i, origin := range origins {
		rs.Put(origin, results[i].route)
		m.observe(results[i].route.Size(), results[i].km)
		g.logger.Debug("route generated",
			slog.String("origin", origin.Name),
			slog.Int("hops", results[i].route.Size()),
			slog.Float64("km", results[i].km))
	}
	m.Duration = time.Since(start)
	return rs, m, nil
}
