package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/ports"
)

// In-memory implementation of the PlanRepository port. Plans are stored as
// records, so later edits to a saved trajectory do not leak into the store.
type MemoryPlanRepository struct {
	mu     sync.RWMutex
	plans  map[string]domain.PlanRecord
	logger *slog.Logger
}

func NewMemoryPlanRepository(logger *slog.Logger) *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[string]domain.PlanRecord), logger: logger}
}

func (r *MemoryPlanRepository) SavePlan(ctx context.Context, plan *domain.Plan) error {
	if plan == nil || plan.Trajectory == nil {
		return fmt.Errorf("memory save plan: plan and trajectory are required")
	}
	rec := domain.RecordPlan(plan)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[rec.PlanID] = rec
	return nil
}

func (r *MemoryPlanRepository) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	r.mu.RLock()
	rec, ok := r.plans[planID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory get plan %q: %w", planID, ports.ErrPlanNotFound)
	}
	return rec.Build(r.logger)
}

func (r *MemoryPlanRepository) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	r.mu.RLock()
	recs := make([]domain.PlanRecord, 0, len(r.plans))
	for _, rec := range r.plans {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].PlanID < recs[j].PlanID
	})

	out := make([]*domain.Plan, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.Build(r.logger)
		if err != nil {
			return nil, fmt.Errorf("memory list plans: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
