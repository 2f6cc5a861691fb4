// Package config loads planner settings: defaults, then config.yml, then
// FEEDER_* environment variables. Flags are applied by the command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"feedernet/internal/fleet"
	"feedernet/internal/opt"
)

// DefaultPath is read when no explicit path is given. Its absence is not an
// error.
const DefaultPath = "config.yml"

type Config struct {
	Network string       `yaml:"network" validate:"required"`
	Input   InputConfig  `yaml:"input"`
	Output  OutputConfig `yaml:"output"`
	Routes  RoutesConfig `yaml:"routes"`
	Fleet   FleetConfig  `yaml:"fleet"`
	Store   StoreConfig  `yaml:"store"`
	Notify  NotifyConfig `yaml:"notify"`
	Log     LogConfig    `yaml:"log"`
}

type InputConfig struct {
	Dir               string `yaml:"dir" validate:"required"`
	MatrixSheet       string `yaml:"matrixSheet" validate:"required"`
	DemandSheet       string `yaml:"demandSheet" validate:"required"`
	TravelDemandSheet string `yaml:"travelDemandSheet" validate:"required"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	MetricsFile string `yaml:"metricsFile"`
}

type RoutesConfig struct {
	MinConnectionKm       float64 `yaml:"minConnectionKm" validate:"gte=0"`
	MaxRouteKm            float64 `yaml:"maxRouteKm" validate:"gt=0"`
	OriginDemandThreshold int     `yaml:"originDemandThreshold" validate:"gte=0"`
	Workers               int     `yaml:"workers" validate:"gte=1,lte=256"`
}

type FleetConfig struct {
	SpeedKmph             float64 `yaml:"speedKmph" validate:"gt=0"`
	DwellTimeSeconds      float64 `yaml:"dwellTimeSeconds" validate:"gte=0"`
	UnitWaitingCost       float64 `yaml:"unitWaitingCost" validate:"gt=0"`
	UnitVehicleCost       float64 `yaml:"unitVehicleCost" validate:"gt=0"`
	DemandMultiplier      int     `yaml:"demandMultiplier" validate:"gte=1"`
	BusCapacity           int     `yaml:"busCapacity" validate:"gte=1"`
	MaxBusCapacity        int     `yaml:"maxBusCapacity" validate:"gtefield=BusCapacity"`
	MaxFleetSize          int     `yaml:"maxFleetSize" validate:"gte=0"`
	OriginDemandThreshold int     `yaml:"originDemandThreshold" validate:"gte=0"`
	HeaderSuffixLen       int     `yaml:"headerSuffixLen" validate:"gte=0"`
}

type StoreConfig struct {
	DatabaseURL string `yaml:"databaseURL"`
	Migrate     bool   `yaml:"migrate"`
}

type NotifyConfig struct {
	RedisURL string `yaml:"redisURL" validate:"omitempty,url"`
}

type LogConfig struct {
	Format string `yaml:"format" validate:"oneof=text json"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the settings of the reference network.
func Default() Config {
	rc := opt.DefaultConfig()
	fc := fleet.DefaultConfig()
	return Config{
		Network: "default",
		Input: InputConfig{
			Dir:               "data",
			MatrixSheet:       "Matrix",
			DemandSheet:       "Demand at each node",
			TravelDemandSheet: "Travel Demand Matrix",
		},
		Output: OutputConfig{Dir: "out"},
		Routes: RoutesConfig{
			MinConnectionKm:       rc.MinConnectionKm,
			MaxRouteKm:            rc.MaxRouteKm,
			OriginDemandThreshold: rc.OriginDemandThreshold,
			Workers:               rc.Workers,
		},
		Fleet: FleetConfig{
			SpeedKmph:             fc.SpeedKmph,
			DwellTimeSeconds:      20,
			UnitWaitingCost:       fc.UnitWaitingCost,
			UnitVehicleCost:       fc.UnitVehicleCost,
			DemandMultiplier:      fc.DemandMultiplier,
			BusCapacity:           fc.BusCapacity,
			MaxBusCapacity:        fc.MaxBusCapacity,
			MaxFleetSize:          fc.MaxFleetSize,
			OriginDemandThreshold: fc.OriginDemandThreshold,
			HeaderSuffixLen:       fc.HeaderSuffixLen,
		},
		Store: StoreConfig{Migrate: true},
		Log:   LogConfig{Format: "text", Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment, then validates it. An empty path reads DefaultPath when it
// exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from FEEDER_* variables, DATABASE_URL and
// REDIS_URL. Unparseable numbers leave the field unchanged.
func (c *Config) ApplyEnv() {
	c.Network = envStr("FEEDER_NETWORK", c.Network)
	c.Input.Dir = envStr("FEEDER_INPUT_DIR", c.Input.Dir)
	c.Output.Dir = envStr("FEEDER_OUTPUT_DIR", c.Output.Dir)
	c.Output.MetricsFile = envStr("FEEDER_METRICS_FILE", c.Output.MetricsFile)
	c.Routes.Workers = envInt("FEEDER_WORKERS", c.Routes.Workers)
	c.Routes.MinConnectionKm = envFloat("FEEDER_MIN_CONNECTION_KM", c.Routes.MinConnectionKm)
	c.Routes.MaxRouteKm = envFloat("FEEDER_MAX_ROUTE_KM", c.Routes.MaxRouteKm)
	c.Fleet.SpeedKmph = envFloat("FEEDER_SPEED_KMPH", c.Fleet.SpeedKmph)
	c.Fleet.MaxFleetSize = envInt("FEEDER_MAX_FLEET_SIZE", c.Fleet.MaxFleetSize)
	c.Store.DatabaseURL = envStr("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.Migrate = envBool("FEEDER_DB_MIGRATE", c.Store.Migrate)
	c.Notify.RedisURL = envStr("REDIS_URL", c.Notify.RedisURL)
	c.Log.Format = envStr("FEEDER_LOG_FORMAT", c.Log.Format)
	c.Log.Level = envStr("FEEDER_LOG_LEVEL", c.Log.Level)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) RouteConfig() opt.Config {
	return opt.Config{
		MinConnectionKm:       c.Routes.MinConnectionKm,
		MaxRouteKm:            c.Routes.MaxRouteKm,
		OriginDemandThreshold: c.Routes.OriginDemandThreshold,
		Workers:               c.Routes.Workers,
	}
}

func (c *Config) FleetConfig() fleet.Config {
	return fleet.Config{
		SpeedKmph:             c.Fleet.SpeedKmph,
		DwellTimeHours:        c.Fleet.DwellTimeSeconds / 3600,
		UnitWaitingCost:       c.Fleet.UnitWaitingCost,
		UnitVehicleCost:       c.Fleet.UnitVehicleCost,
		DemandMultiplier:      c.Fleet.DemandMultiplier,
		BusCapacity:           c.Fleet.BusCapacity,
		MaxBusCapacity:        c.Fleet.MaxBusCapacity,
		MaxFleetSize:          c.Fleet.MaxFleetSize,
		OriginDemandThreshold: c.Fleet.OriginDemandThreshold,
		HeaderSuffixLen:       c.Fleet.HeaderSuffixLen,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
