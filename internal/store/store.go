// Package store keeps finished plans so later runs and tools can read them
// back. The engines never read from it.
package store

import (
	"context"
	"errors"

	"feedernet/internal/model"
)

// Store is the persistence interface used by the planner.
type Store interface {
	SavePlan(ctx context.Context, plan model.Plan) error
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	// ListPlans pages through the plans of a network, oldest first. cursor is
	// the last id of the previous page; the returned cursor is empty on the
	// last page.
	ListPlans(ctx context.Context, network, cursor string, limit int) ([]model.Summary, string, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate plan id")
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return defaultLimit
	}
	return limit
}
