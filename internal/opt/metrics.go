package opt

import (
	"log/slog"
	"time"
)

// Metrics summarises one Generate run.
type Metrics struct {
	Origins   int
	TotalHops int
	ZeroHop   int
	LongestKm float64
	TotalKm   float64
	Workers   int
	Duration  time.Duration
	RouteHops []int // per origin, in origin order
}

func (m Metrics) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("origins", m.Origins),
		slog.Int("total_hops", m.TotalHops),
		slog.Int("zero_hop_routes", m.ZeroHop),
		slog.Float64("longest_km", m.LongestKm),
		slog.Float64("total_km", m.TotalKm),
		slog.Int("workers", m.Workers),
		slog.Duration("duration", m.Duration),
	}
}

func (m *Metrics) observe(hops int, km float64) {
	m.RouteHops = append(m.RouteHops, hops)
	m.TotalHops += hops
	m.TotalKm += km
	if hops == 0 {
		m.ZeroHop++
	}
	if km > m.LongestKm {
		m.LongestKm = km
	}
}
