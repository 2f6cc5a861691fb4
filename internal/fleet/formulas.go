package fleet

import (
	"math"

	"feedernet/internal/graph"
)

// RouteLength is the sum of connection weights in km.
func RouteLength(route *graph.StopGraph) float64 { return route.TotalWeight() }

// StopCount counts every vertex of the route, origin included.
func StopCount(route *graph.StopGraph) int { return route.Order() }

// TravelTimeFactor is exp(-length/speed), the relative pull of a route when
// the network demand is shared out.
func (c Config) TravelTimeFactor(lengthKm float64) float64 {
	return math.Exp(-lengthKm / c.SpeedKmph)
}

// roundTripKm is the distance-equivalent of one cycle: length plus the
// distance the bus would cover while dwelling, both ways.
func (c Config) roundTripKm(lengthKm float64, stops int) float64 {
	return 2 * (lengthKm + c.DwellTimeHours*float64(stops)*c.SpeedKmph)
}

// CostHeadway balances vehicle operating cost against passenger waiting cost
// (square root headway), in hours.
func (c Config) CostHeadway(lengthKm float64, stops int, passengers float64) float64 {
	num := 2 * c.UnitVehicleCost * (c.DwellTimeHours*float64(stops)*c.SpeedKmph + lengthKm)
	den := c.UnitWaitingCost * c.SpeedKmph * passengers
	return math.Sqrt(num / den)
}

// CapacityHeadway is the longest headway at which the busiest connection
// still fits the nominal seating, in hours.
func (c Config) CapacityHeadway(maxDemand int) float64 {
	return float64(c.BusCapacity) / float64(maxDemand)
}

// FleetSize is the number of buses needed to hold the headway on a round trip.
func (c Config) FleetSize(lengthKm float64, stops int, headway float64) int {
	return int(math.Ceil(c.roundTripKm(lengthKm, stops) / (headway * c.SpeedKmph)))
}

// AdjustedHeadway is the headway the route would run at with one bus fewer.
// It reports false when the fleet cannot shrink.
func (c Config) AdjustedHeadway(lengthKm float64, stops, fleet int) (float64, bool) {
	if fleet <= 1 {
		return 0, false
	}
	return c.roundTripKm(lengthKm, stops) / (float64(fleet-1) * c.SpeedKmph), true
}

// AdjustFleet drops one bus unless the longer headway would overcrowd the
// busiest connection.
func (c Config) AdjustFleet(fleet, maxDemand int, adjustedHeadway float64, reducible bool) int {
	if !reducible {
		return fleet
	}
	if float64(maxDemand)*adjustedHeadway > float64(c.MaxBusCapacity) {
		return fleet
	}
	return fleet - 1
}
