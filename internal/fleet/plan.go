package fleet

import "feedernet/internal/graph"

// RouteSizing is the full fleet computation for one route. Headways are in
// hours.
type RouteSizing struct {
	Origin            graph.Station
	LengthKm          float64
	Stops             int
	TravelTimeFactor  float64
	Demand            []int
	MaxDemand         int
	Passengers        float64
	CostHeadway       float64
	CapacityHeadway   float64
	Headway           float64
	FleetSize         int
	AdjustedHeadway   float64 // zero unless Reducible
	Reducible         bool
	AdjustedFleetSize int
	UnmatchedLookups  int
}

// Plan holds the sizing of every eligible route in route order.
type Plan struct {
	Routes           []RouteSizing
	TotalFleet       int
	UnmatchedLookups int
	OverFleetLimit   bool
}

// Sizes maps each origin to its final fleet size.
func (p *Plan) Sizes() Counts {
	out := make(Counts, len(p.Routes))
	for _, r := range p.Routes {
		out[r.Origin] = r.AdjustedFleetSize
	}
	return out
}

func (p *Plan) Route(origin graph.Station) (RouteSizing, bool) {
	for _, r := range p.Routes {
		if r.Origin == origin {
			return r, true
		}
	}
	return RouteSizing{}, false
}
