package planner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedernet/internal/config"
	"feedernet/internal/logging"
	"feedernet/internal/matrix"
	"feedernet/internal/notify"
	"feedernet/internal/store"
)

var sheets = map[string]string{
	"Matrix.csv": ",O m,S b,T b\n" +
		"O m,0,2,\n" +
		"S b,2,0,3\n" +
		"T b,,3,0\n",
	"Demand at each node.csv": "Station,Demand\n" +
		"O m,10\n" +
		"S b,3\n" +
		"T b,2\n",
	"Travel Demand Matrix.csv": ",O m,S b,T b\n" +
		"O m,,4,1\n" +
		"S b,,,2\n" +
		"T b,,,\n",
}

func writeSheets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func newPlanner(t *testing.T, in string) (*Planner, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Network = "test"
	cfg.Input.Dir = in
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.MetricsFile = filepath.Join(t.TempDir(), "feedernet.prom")
	cfg.Routes.Workers = 2

	var logs bytes.Buffer
	p, err := New(context.Background(), cfg, logging.NewStructuredLogger(&logs, 0))
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = p.Close() })
	return p, &logs
}

func TestRunEndToEnd(t *testing.T) {
	p, logs := newPlanner(t, writeSheets(t, sheets))
	require.IsType(t, &store.Memory{}, p.Store)
	events := p.Broker.Subscribe(notify.PlanTopic("test"))

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Network.Order())
	assert.Equal(t, 4, res.Network.Size())

	require.Equal(t, 1, res.Routes.Len())
	require.Len(t, res.Plan.Routes, 1)
	route := res.Plan.Routes[0]
	var names []string
	for _, s := range route.Stops {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"O", "S", "T"}, names)
	assert.InDelta(t, 5.0, route.LengthKm, 1e-12)

	require.NotNil(t, route.Sizing)
	assert.Equal(t, []int{40, 24, 8}, route.Sizing.Demand)
	assert.InDelta(t, 72.0, route.Sizing.Passengers, 1e-9)
	assert.InDelta(t, 0.18930600278019327, route.Sizing.CostHeadway, 1e-12)
	assert.Equal(t, 2, route.Sizing.FleetSize)
	require.NotNil(t, route.Sizing.AdjustedHeadway)
	assert.InDelta(t, 0.36666666666666664, *route.Sizing.AdjustedHeadway, 1e-12)
	assert.Equal(t, 1, route.Sizing.AdjustedFleetSize)
	assert.Equal(t, 1, res.Plan.TotalFleet)
	assert.Zero(t, res.Plan.UnmatchedLookups)

	assert.FileExists(t, res.NetworkFile)
	require.Len(t, res.RouteFiles, 1)
	assert.FileExists(t, res.RouteFiles[0])
	assert.FileExists(t, res.PlanFile)
	assert.FileExists(t, p.Config.Output.MetricsFile)

	saved, err := p.Store.GetPlan(context.Background(), res.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Plan.TotalFleet, saved.TotalFleet)

	select {
	case evt := <-events:
		assert.Equal(t, notify.EventPlanCompleted, evt.Type)
		assert.Equal(t, res.Plan.ID, evt.Data["planId"])
	case <-time.After(time.Second):
		t.Fatal("no plan.completed event")
	}

	assert.Contains(t, logs.String(), `"msg":"plan completed"`)
	assert.Contains(t, logs.String(), `"network":"test"`)
}

func TestRunIsRepeatable(t *testing.T) {
	p, _ := newPlanner(t, writeSheets(t, sheets))
	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Plan.ID, second.Plan.ID)
	assert.Equal(t, first.Fleet.Sizes(), second.Fleet.Sizes())
	assert.Equal(t, first.Routes.Origins(), second.Routes.Origins())

	items, _, err := p.Store.ListPlans(context.Background(), "test", "", 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRunMissingSheet(t *testing.T) {
	files := map[string]string{"Matrix.csv": sheets["Matrix.csv"]}
	p, logs := newPlanner(t, writeSheets(t, files))

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Demand at each node"`)
	assert.Contains(t, logs.String(), `"stage":"ingest"`)
}

func TestRunBadCell(t *testing.T) {
	files := map[string]string{}
	for k, v := range sheets {
		files[k] = v
	}
	files["Matrix.csv"] = ",O m,S b\nO m,0,two\nS b,2,0\n"
	p, _ := newPlanner(t, writeSheets(t, files))

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, matrix.ErrBadCell)
}

func TestNewFallsBackToInProcessBroker(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.RedisURL = "http://not-redis"
	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.Broker{}, p.Broker)
}
