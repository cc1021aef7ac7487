package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/ports"
)

// Populate the store with plans from a JSON file holding an array of plan
// records. Every plan is rebuilt first, so an inconsistent seed is rejected
// before anything is written.
func SeedFromJSON(ctx context.Context, repo ports.PlanRepository, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed plans: read %q: %w", jsonPath, err)
	}

	var data []domain.PlanRecord
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed plans: parse json: %w", err)
	}

	now := time.Now().UTC()
	plans := make([]*domain.Plan, 0, len(data))
	for i, rec := range data {
		rec.PlanID = strings.TrimSpace(rec.PlanID)
		if rec.PlanID == "" {
			return fmt.Errorf("seed plans: item at index %d: plan_id cannot be empty", i+1)
		}
		if strings.TrimSpace(rec.VehicleID) == "" {
			return fmt.Errorf("seed plans: item at index %d: vehicle_id cannot be empty", i+1)
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}

		p, err := rec.Build(nil)
		if err != nil {
			return fmt.Errorf("seed plans: item at index %d: %w", i+1, err)
		}
		plans = append(plans, p)
	}

	for _, p := range plans {
		if err := repo.SavePlan(ctx, p); err != nil {
			return fmt.Errorf("seed plans: save plan_id=%s: %w", p.PlanID, err)
		}
	}

	return nil
}
