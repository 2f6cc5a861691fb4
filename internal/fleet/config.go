package fleet

// Config holds the operating constants of the fleet model. Costs are per
// hour, times are in hours and distances in km.
type Config struct {
	SpeedKmph             float64
	DwellTimeHours        float64
	UnitWaitingCost       float64
	UnitVehicleCost       float64
	DemandMultiplier      int // expands the surveyed sample to the full population
	BusCapacity           int // nominal seats, used for the capacity headway
	MaxBusCapacity        int // crowding limit when trying one bus fewer
	MaxFleetSize          int // network-wide buses per hour; 0 disables the check
	OriginDemandThreshold int // metro demand needed for a route to be sized
	HeaderSuffixLen       int // kind marker length on travel demand headers
}

func DefaultConfig() Config {
	return Config{
		SpeedKmph:             30,
		DwellTimeHours:        20.0 / 3600.0,
		UnitWaitingCost:       108,
		UnitVehicleCost:       760,
		DemandMultiplier:      8,
		BusCapacity:           50,
		MaxBusCapacity:        60,
		MaxFleetSize:          74,
		OriginDemandThreshold: 3,
		HeaderSuffixLen:       2,
	}
}
