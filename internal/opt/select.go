package opt

import "feedernet/internal/graph"

// Candidates is the set of metro stations that anchor their own route.
type Candidates map[graph.Station]struct{}

func NewCandidates(stations []graph.Station) Candidates {
	c := make(Candidates, len(stations))
	for _, s := range stations {
		c[s] = struct{}{}
	}
	return c
}

func (c Candidates) Has(s graph.Station) bool {
	_, ok := c[s]
	return ok
}

// SelectNextStop picks the shortest outgoing connection that keeps the route
// inside its distance budget, serves some demand and does not run into the
// catchment of another origin. It reports false on a dead end.
func SelectNextStop(outgoing []graph.Connection, candidates Candidates, routeKm float64, cfg Config) (graph.Connection, bool) {
	conns := append([]graph.Connection(nil), outgoing...)
	graph.ByWeight(conns)
	for _, c := range conns {
		if c.Weight <= cfg.MinConnectionKm {
			continue
		}
		if c.Weight+routeKm > cfg.MaxRouteKm {
			continue
		}
		if !c.Target.Metro && c.Target.Demand == 0 {
			continue
		}
		if candidates.Has(c.Target) {
			continue
		}
		return c, true
	}
	return graph.Connection{}, false
}
