// Package graph holds the weighted directed multigraph of metro stations and
// bus stops that the route and fleet engines work on.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownStation      = errors.New("unknown station")
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrNegativeWeight      = errors.New("negative connection weight")
)

// Station is a metro station or a bus stop. Two stations are the same vertex
// only when name, kind and demand all match.
type Station struct {
	Name   string
	Metro  bool
	Demand int
}

func (s Station) String() string {
	if s.Metro {
		return fmt.Sprintf("%s Metro; Demand is %d", s.Name, s.Demand)
	}
	return fmt.Sprintf("%s Bus Stop; Demand is %d", s.Name, s.Demand)
}

// Connection is a directed, weighted edge. Weight is a distance in km.
type Connection struct {
	Source Station
	Target Station
	Weight float64
}

func (c Connection) String() string {
	return fmt.Sprintf("%s to %s; Distance: %g KMs", c.Source, c.Target, c.Weight)
}

// ByWeight sorts connections shortest first, keeping the relative order of
// equal weights.
func ByWeight(conns []Connection) {
	sort.SliceStable(conns, func(i, j int) bool { return conns[i].Weight < conns[j].Weight })
}

// StopGraph is a directed multigraph keyed by Station value. Iteration order
// follows insertion order so runs over the same input are reproducible.
type StopGraph struct {
	stations []Station
	present  map[Station]bool
	out      map[Station][]Connection
	in       map[Station][]Connection
}

func NewStopGraph() *StopGraph {
	return &StopGraph{
		present: map[Station]bool{},
		out:     map[Station][]Connection{},
		in:      map[Station][]Connection{},
	}
}

// AddStation adds s and reports whether it was new.
func (g *StopGraph) AddStation(s Station) bool {
	if g.present[s] {
		return false
	}
	g.present[s] = true
	g.stations = append(g.stations, s)
	return true
}

func (g *StopGraph) HasStation(s Station) bool { return g.present[s] }

// AddConnection adds c. Both endpoints must already be stations of g.
// Parallel connections are allowed as long as their weights differ.
func (g *StopGraph) AddConnection(c Connection) error {
	if !g.present[c.Source] {
		return fmt.Errorf("source %s: %w", c.Source.Name, ErrUnknownStation)
	}
	if !g.present[c.Target] {
		return fmt.Errorf("target %s: %w", c.Target.Name, ErrUnknownStation)
	}
	if c.Weight < 0 {
		return fmt.Errorf("%s -> %s: %w", c.Source.Name, c.Target.Name, ErrNegativeWeight)
	}
	for _, e := range g.out[c.Source] {
		if e == c {
			return ErrDuplicateConnection
		}
	}
	g.out[c.Source] = append(g.out[c.Source], c)
	g.in[c.Target] = append(g.in[c.Target], c)
	return nil
}

// Outgoing returns a copy of the connections leaving s.
func (g *StopGraph) Outgoing(s Station) []Connection {
	return append([]Connection(nil), g.out[s]...)
}

// RemoveStation drops s together with every connection touching it.
func (g *StopGraph) RemoveStation(s Station) bool {
	if !g.present[s] {
		return false
	}
	for _, c := range g.out[s] {
		g.in[c.Target] = without(g.in[c.Target], c)
	}
	for _, c := range g.in[s] {
		g.out[c.Source] = without(g.out[c.Source], c)
	}
	delete(g.out, s)
	delete(g.in, s)
	delete(g.present, s)
	for i, st := range g.stations {
		if st == s {
			g.stations = append(g.stations[:i:i], g.stations[i+1:]...)
			break
		}
	}
	return true
}

func without(conns []Connection, c Connection) []Connection {
	out := conns[:0:0]
	for _, e := range conns {
		if e != c {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a structural copy. Stations and connections are values, so
// mutating the clone never reaches g.
func (g *StopGraph) Clone() *StopGraph {
	c := &StopGraph{
		stations: append([]Station(nil), g.stations...),
		present:  make(map[Station]bool, len(g.present)),
		out:      make(map[Station][]Connection, len(g.out)),
		in:       make(map[Station][]Connection, len(g.in)),
	}
	for s := range g.present {
		c.present[s] = true
	}
	for s, conns := range g.out {
		c.out[s] = append([]Connection(nil), conns...)
	}
	for s, conns := range g.in {
		c.in[s] = append([]Connection(nil), conns...)
	}
	return c
}

// Stations returns the vertices in insertion order.
func (g *StopGraph) Stations() []Station {
	return append([]Station(nil), g.stations...)
}

// Connections returns every edge, grouped by source in station order.
func (g *StopGraph) Connections() []Connection {
	var out []Connection
	for _, s := range g.stations {
		out = append(out, g.out[s]...)
	}
	return out
}

func (g *StopGraph) Order() int { return len(g.stations) }

func (g *StopGraph) Size() int {
	n := 0
	for _, conns := range g.out {
		n += len(conns)
	}
	return n
}

// TotalWeight sums all connection weights.
func (g *StopGraph) TotalWeight() float64 {
	total := 0.0
	for _, s := range g.stations {
		for _, c := range g.out[s] {
			total += c.Weight
		}
	}
	return total
}
