package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedernet/internal/fleet"
	"feedernet/internal/opt"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FEEDER_NETWORK", "FEEDER_INPUT_DIR", "FEEDER_OUTPUT_DIR", "FEEDER_METRICS_FILE",
		"FEEDER_WORKERS", "FEEDER_MIN_CONNECTION_KM", "FEEDER_MAX_ROUTE_KM",
		"FEEDER_SPEED_KMPH", "FEEDER_MAX_FLEET_SIZE", "DATABASE_URL",
		"FEEDER_DB_MIGRATE", "REDIS_URL", "FEEDER_LOG_FORMAT", "FEEDER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsMatchEngines(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, opt.DefaultConfig(), cfg.RouteConfig())
	assert.Equal(t, fleet.DefaultConfig(), cfg.FleetConfig())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
network: pune
input:
  dir: /srv/pune
routes:
  maxRouteKm: 18
  workers: 2
fleet:
  maxFleetSize: 90
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pune", cfg.Network)
	assert.Equal(t, "/srv/pune", cfg.Input.Dir)
	assert.Equal(t, "Matrix", cfg.Input.MatrixSheet, "unset keys keep defaults")
	assert.Equal(t, 18.0, cfg.Routes.MaxRouteKm)
	assert.Equal(t, 2, cfg.Routes.Workers)
	assert.Equal(t, 90, cfg.Fleet.MaxFleetSize)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 7, cfg.Routes.OriginDemandThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err, "explicit path must exist")

	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err, "default path is optional")
	assert.Equal(t, "default", cfg.Network)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "network: pune\nroutes:\n  workers: 2\n")
	t.Setenv("FEEDER_NETWORK", "mumbai")
	t.Setenv("FEEDER_WORKERS", "6")
	t.Setenv("FEEDER_SPEED_KMPH", "24.5")
	t.Setenv("FEEDER_MAX_ROUTE_KM", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://feeder@localhost/feeder")
	t.Setenv("FEEDER_DB_MIGRATE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mumbai", cfg.Network)
	assert.Equal(t, 6, cfg.Routes.Workers)
	assert.Equal(t, 24.5, cfg.Fleet.SpeedKmph)
	assert.Equal(t, 25.0, cfg.Routes.MaxRouteKm)
	assert.Equal(t, "postgres://feeder@localhost/feeder", cfg.Store.DatabaseURL)
	assert.False(t, cfg.Store.Migrate)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no network", func(c *Config) { c.Network = "" }},
		{"no input dir", func(c *Config) { c.Input.Dir = "" }},
		{"zero workers", func(c *Config) { c.Routes.Workers = 0 }},
		{"zero budget", func(c *Config) { c.Routes.MaxRouteKm = 0 }},
		{"zero speed", func(c *Config) { c.Fleet.SpeedKmph = 0 }},
		{"crowding below seats", func(c *Config) { c.Fleet.MaxBusCapacity = c.Fleet.BusCapacity - 1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad redis url", func(c *Config) { c.Notify.RedisURL = "::" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "network: [unclosed"))
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(old)) })
}
