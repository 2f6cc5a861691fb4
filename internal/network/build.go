// Package network turns the OD distance sheet into a stop graph.
package network

import (
	"errors"
	"fmt"
	"strings"

	"feedernet/internal/graph"
	"feedernet/internal/matrix"
)

// Header names end with a two character kind marker.
const (
	busStopSuffix = " b"
	suffixLen     = 2
)

// Station resolves a raw sheet header. Demand comes from the demand sheet
// row of the same raw name, 0 when there is none.
func Station(raw string, demand matrix.Table) graph.Station {
	s := graph.Station{
		Name:  matrix.StripSuffix(raw, suffixLen),
		Metro: !strings.HasSuffix(raw, busStopSuffix),
	}
	if c, ok := demand.Lookup(raw); ok && !c.Blank {
		s.Demand = int(c.Value)
	}
	return s
}

// Build adds every station of od in first-seen order, then a connection from
// each column station to each row station weighted by the cell in km. Blank
// cells and self loops are skipped.
func Build(od, demand matrix.Table) (*graph.StopGraph, error) {
	g := graph.NewStopGraph()
	for _, raw := range od.Names() {
		g.AddStation(Station(raw, demand))
	}
	cols := make([]graph.Station, len(od.Columns))
	for j, raw := range od.Columns {
		cols[j] = Station(raw, demand)
	}
	for i, row := range od.Rows {
		if row.Name == "" {
			continue
		}
		to := Station(row.Name, demand)
		for j, from := range cols {
			if od.Columns[j] == "" || from == to {
				continue
			}
			c := od.Cell(i, j)
			if c.Blank {
				continue
			}
			err := g.AddConnection(graph.Connection{Source: from, Target: to, Weight: c.Value})
			if errors.Is(err, graph.ErrDuplicateConnection) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("row %q column %q: %w", row.Name, od.Columns[j], err)
			}
		}
	}
	return g, nil
}
