// Package model holds the documents a planning run produces. They are what
// the store persists, the export writes and the broker announces.
package model

import (
	"time"

	"github.com/google/uuid"

	"feedernet/internal/fleet"
	"feedernet/internal/graph"
	"feedernet/internal/opt"
)

const (
	KindMetro   = "metro"
	KindBusStop = "bus_stop"
)

type StationRef struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Demand int    `json:"demand"`
}

type Leg struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Km   float64 `json:"km"`
}

// Sizing is the fleet breakdown of one route. Headways are in hours.
type Sizing struct {
	TravelTimeFactor  float64  `json:"travelTimeFactor"`
	Demand            []int    `json:"demand"`
	MaxDemand         int      `json:"maxDemand"`
	Passengers        float64  `json:"passengers"`
	CostHeadway       float64  `json:"costHeadwayH"`
	CapacityHeadway   float64  `json:"capacityHeadwayH"`
	Headway           float64  `json:"headwayH"`
	FleetSize         int      `json:"fleetSize"`
	AdjustedHeadway   *float64 `json:"adjustedHeadwayH,omitempty"`
	AdjustedFleetSize int      `json:"adjustedFleetSize"`
	UnmatchedLookups  int      `json:"unmatchedLookups,omitempty"`
}

type Route struct {
	ID       string       `json:"id"`
	Origin   StationRef   `json:"origin"`
	Stops    []StationRef `json:"stops"`
	Legs     []Leg        `json:"legs"`
	LengthKm float64      `json:"lengthKm"`
	Sizing   *Sizing      `json:"sizing,omitempty"`
}

type Plan struct {
	ID               string    `json:"id"`
	Network          string    `json:"network"`
	CreatedAt        time.Time `json:"createdAt"`
	Routes           []Route   `json:"routes"`
	TotalFleet       int       `json:"totalFleet"`
	UnmatchedLookups int       `json:"unmatchedLookups"`
	OverFleetLimit   bool      `json:"overFleetLimit"`
}

// Summary is the listing form of a plan.
type Summary struct {
	ID         string    `json:"id"`
	Network    string    `json:"network"`
	CreatedAt  time.Time `json:"createdAt"`
	Routes     int       `json:"routes"`
	TotalFleet int       `json:"totalFleet"`
}

func (p Plan) Summary() Summary {
	return Summary{ID: p.ID, Network: p.Network, CreatedAt: p.CreatedAt, Routes: len(p.Routes), TotalFleet: p.TotalFleet}
}

func Ref(s graph.Station) StationRef {
	kind := KindBusStop
	if s.Metro {
		kind = KindMetro
	}
	return StationRef{Name: s.Name, Kind: kind, Demand: s.Demand}
}

// NewPlan assembles the document of one run. Routes keep generation order;
// sizing may be nil when the fleet step was not run.
func NewPlan(network string, routes *opt.RouteSet, sizing *fleet.Plan, now time.Time) Plan {
	p := Plan{
		ID:        uuid.New().String(),
		Network:   network,
		CreatedAt: now.UTC(),
		Routes:    []Route{},
	}
	routes.Each(func(origin graph.Station, route *graph.StopGraph) {
		r := Route{
			ID:       uuid.New().String(),
			Origin:   Ref(origin),
			LengthKm: route.TotalWeight(),
			Legs:     []Leg{},
		}
		for _, s := range opt.Path(route, origin) {
			r.Stops = append(r.Stops, Ref(s))
		}
		for _, c := range route.Connections() {
			r.Legs = append(r.Legs, Leg{From: c.Source.Name, To: c.Target.Name, Km: c.Weight})
		}
		if sizing != nil {
			if rs, ok := sizing.Route(origin); ok {
				r.Sizing = sizingDoc(rs)
			}
		}
		p.Routes = append(p.Routes, r)
	})
	if sizing != nil {
		p.TotalFleet = sizing.TotalFleet
		p.UnmatchedLookups = sizing.UnmatchedLookups
		p.OverFleetLimit = sizing.OverFleetLimit
	}
	return p
}

func sizingDoc(rs fleet.RouteSizing) *Sizing {
	s := &Sizing{
		TravelTimeFactor:  rs.TravelTimeFactor,
		Demand:            append([]int(nil), rs.Demand...),
		MaxDemand:         rs.MaxDemand,
		Passengers:        rs.Passengers,
		CostHeadway:       rs.CostHeadway,
		CapacityHeadway:   rs.CapacityHeadway,
		Headway:           rs.Headway,
		FleetSize:         rs.FleetSize,
		AdjustedFleetSize: rs.AdjustedFleetSize,
		UnmatchedLookups:  rs.UnmatchedLookups,
	}
	if rs.Reducible {
		h := rs.AdjustedHeadway
		s.AdjustedHeadway = &h
	}
	return s
}
