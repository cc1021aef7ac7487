package ports

import (
	"context"
	"errors"
	"trajectory-service/internal/domain"
)

// ErrPlanNotFound is returned by GetPlan when no plan has the given id.
var ErrPlanNotFound = errors.New("plan not found")

// Port: a boundary for persisting planned trajectories.
type PlanRepository interface {
	// Store the plan, replacing any plan with the same id.
	SavePlan(ctx context.Context, plan *domain.Plan) error
	// Load one plan by id. Returns ErrPlanNotFound when it does not exist.
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
	// List all stored plans, newest first.
	ListPlans(ctx context.Context) ([]*domain.Plan, error)
}
