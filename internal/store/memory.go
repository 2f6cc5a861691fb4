package store

import (
	"context"
	"encoding/json"
	"sync"

	"feedernet/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
// Plans are kept as JSON so callers never share slices with it.
type Memory struct {
	mu    sync.Mutex
	plans map[string][]byte // id -> plan document
	order []string          // ids in save order
}

func NewMemory() *Memory {
	return &Memory{plans: map[string][]byte{}}
}

func (m *Memory) SavePlan(ctx context.Context, plan model.Plan) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.ID]; ok {
		return ErrDuplicate
	}
	m.plans[plan.ID] = body
	m.order = append(m.order, plan.ID)
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	m.mu.Lock()
	body, ok := m.plans[id]
	m.mu.Unlock()
	if !ok {
		return model.Plan{}, ErrNotFound
	}
	var p model.Plan
	err := json.Unmarshal(body, &p)
	return p, err
}

func (m *Memory) ListPlans(ctx context.Context, network, cursor string, limit int) ([]model.Summary, string, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if cursor != "" {
		start = len(m.order)
		for i, id := range m.order {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Summary{}
	var last string
	for i := start; i < len(m.order) && len(out) < limit; i++ {
		var p model.Plan
		if err := json.Unmarshal(m.plans[m.order[i]], &p); err != nil {
			return nil, "", err
		}
		if network != "" && p.Network != network {
			continue
		}
		out = append(out, p.Summary())
		last = p.ID
	}
	var next string
	if len(out) == limit && m.hasMore(network, last) {
		next = last
	}
	return out, next, nil
}

func (m *Memory) hasMore(network, after string) bool {
	seen := false
	for _, id := range m.order {
		if seen {
			if network == "" {
				return true
			}
			var p struct {
				Network string `json:"network"`
			}
			if json.Unmarshal(m.plans[id], &p) == nil && p.Network == network {
				return true
			}
		}
		if id == after {
			seen = true
		}
	}
	return false
}
