package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedernet/internal/model"
)

func samplePlan(network string, at time.Time) model.Plan {
	return model.Plan{
		ID:        uuid.New().String(),
		Network:   network,
		CreatedAt: at.UTC().Truncate(time.Microsecond),
		Routes: []model.Route{{
			ID:       uuid.New().String(),
			Origin:   model.StationRef{Name: "Ameerpet", Kind: model.KindMetro, Demand: 12},
			Stops:    []model.StationRef{{Name: "Ameerpet", Kind: model.KindMetro, Demand: 12}, {Name: "SR Nagar", Kind: model.KindBusStop, Demand: 4}},
			Legs:     []model.Leg{{From: "Ameerpet", To: "SR Nagar", Km: 1.9}},
			LengthKm: 1.9,
			Sizing:   &model.Sizing{Demand: []int{40, 8}, MaxDemand: 40, Headway: 0.2, FleetSize: 1, AdjustedFleetSize: 1},
		}},
		TotalFleet: 1,
	}
}

func TestMemorySaveGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	plan := samplePlan("hyderabad", time.Now())
	require.NoError(t, m.SavePlan(ctx, plan))
	assert.ErrorIs(t, m.SavePlan(ctx, plan), ErrDuplicate)

	got, err := m.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Routes, got.Routes)
	assert.True(t, plan.CreatedAt.Equal(got.CreatedAt))

	got.Routes[0].Stops[0].Name = "changed"
	again, err := m.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ameerpet", again.Routes[0].Stops[0].Name, "callers get copies")

	_, err = m.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var want []string
	for i := 0; i < 5; i++ {
		p := samplePlan("hyderabad", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, m.SavePlan(ctx, p))
		want = append(want, p.ID)
		require.NoError(t, m.SavePlan(ctx, samplePlan("pune", base)))
	}

	var got []string
	cursor := ""
	for page := 0; ; page++ {
		require.Less(t, page, 5, "paging must terminate")
		items, next, err := m.ListPlans(ctx, "hyderabad", cursor, 2)
		require.NoError(t, err)
		for _, it := range items {
			assert.Equal(t, "hyderabad", it.Network)
			assert.Equal(t, 1, it.Routes)
			got = append(got, it.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Equal(t, want, got)

	all, next, err := m.ListPlans(ctx, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Empty(t, next)
}

func TestMemoryListExactPage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 2; i++ {
		require.NoError(t, m.SavePlan(ctx, samplePlan("n0", time.Now())))
	}
	items, next, err := m.ListPlans(ctx, "n0", "", 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Empty(t, next, "no further plans")

	items, _, err = m.ListPlans(ctx, "n0", "unknown", 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}
