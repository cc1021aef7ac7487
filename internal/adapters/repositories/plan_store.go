package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/platform/obs"
	"trajectory-service/internal/ports"

	"github.com/golang-migrate/migrate/v4/database"
)

// createdAtLayout is fixed-width so created_at sorts correctly as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// planQueries holds the dialect-specific SQL for a plan store.
type planQueries struct {
	name            string
	upsertPlan      string
	deleteManeuvers string
	insertManeuver  string
	selectPlan      string
	selectManeuvers string
	listPlans       string
	listManeuvers   string
	// listArgs returns the arguments for listManeuvers given the listed plan ids.
	listArgs        func(planIDs []string) []any
	migrationDriver func(db *sql.DB) (database.Driver, error)
}

// planStore implements PlanRepository over database/sql. A plan is one row in
// plans plus one row per maneuver; complex phases point at their parent's seq
// through phase_of.
type planStore struct {
	DB     *sql.DB
	q      planQueries
	logger *slog.Logger

	migrateMu  sync.Mutex
	migrateDrv database.Driver
}

type maneuverRow struct {
	planID  string
	seq     int
	phaseOf sql.NullInt64
	rec     domain.ManeuverRecord
}

func flatten(planID string, recs []domain.ManeuverRecord) []maneuverRow {
	rows := make([]maneuverRow, 0, len(recs))
	seq := 0
	for _, rec := range recs {
		parent := seq
		rows = append(rows, maneuverRow{planID: planID, seq: parent, rec: rec})
		seq++
		for _, ph := range rec.Phases {
			rows = append(rows, maneuverRow{
				planID:  planID,
				seq:     seq,
				phaseOf: sql.NullInt64{Int64: int64(parent), Valid: true},
				rec:     ph,
			})
			seq++
		}
	}
	return rows
}

// assemble rebuilds maneuver records from rows ordered by seq.
func assemble(rows []maneuverRow) ([]domain.ManeuverRecord, error) {
	out := make([]domain.ManeuverRecord, 0, len(rows))
	index := make(map[int]int, len(rows))
	for _, r := range rows {
		if !r.phaseOf.Valid {
			r.rec.Phases = nil
			index[r.seq] = len(out)
			out = append(out, r.rec)
			continue
		}
		i, ok := index[int(r.phaseOf.Int64)]
		if !ok {
			return nil, fmt.Errorf("maneuver seq %d: parent seq %d not found", r.seq, r.phaseOf.Int64)
		}
		out[i].Phases = append(out[i].Phases, r.rec)
	}
	return out, nil
}

func (s *planStore) SavePlan(ctx context.Context, plan *domain.Plan) (err error) {
	defer obs.Time(ctx, s.logger, s.q.name+".SavePlan")(&err)

	if s.DB == nil {
		return fmt.Errorf("%s save plan: DB is nil", s.q.name)
	}
	if plan == nil || plan.Trajectory == nil {
		return fmt.Errorf("%s save plan: plan and trajectory are required", s.q.name)
	}
	rec := domain.RecordPlan(plan)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s save plan: begin tx: %w", s.q.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q.upsertPlan,
		rec.PlanID, rec.VehicleID, rec.CreatedAt.UTC().Format(createdAtLayout), rec.Start, rec.End,
	); err != nil {
		return fmt.Errorf("%s save plan: upsert plan_id=%s: %w", s.q.name, rec.PlanID, err)
	}

	if _, err := tx.ExecContext(ctx, s.q.deleteManeuvers, rec.PlanID); err != nil {
		return fmt.Errorf("%s save plan: clear maneuvers plan_id=%s: %w", s.q.name, rec.PlanID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q.insertManeuver)
	if err != nil {
		return fmt.Errorf("%s save plan: prepare insert: %w", s.q.name, err)
	}
	defer stmt.Close()

	for _, r := range flatten(rec.PlanID, rec.Maneuvers) {
		if _, err := stmt.ExecContext(ctx,
			r.planID, r.seq, r.phaseOf, string(r.rec.Type), r.rec.Start, r.rec.End,
			r.rec.StartSpeed, r.rec.TargetSpeed, r.rec.MaxAccel, r.rec.TargetLane, r.rec.LaneChangeDuration,
		); err != nil {
			return fmt.Errorf("%s save plan: insert maneuver plan_id=%s seq=%d: %w", s.q.name, r.planID, r.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s save plan: commit tx: %w", s.q.name, err)
	}
	return nil
}

func (s *planStore) GetPlan(ctx context.Context, planID string) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, s.logger, s.q.name+".GetPlan")(&err)

	if s.DB == nil {
		return nil, fmt.Errorf("%s get plan: DB is nil", s.q.name)
	}

	rec, err := scanPlan(s.DB.QueryRowContext(ctx, s.q.selectPlan, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s get plan %q: %w", s.q.name, planID, ports.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s get plan %q: %w", s.q.name, planID, err)
	}

	rows, err := s.DB.QueryContext(ctx, s.q.selectManeuvers, planID)
	if err != nil {
		return nil, fmt.Errorf("%s get plan %q: query maneuvers: %w", s.q.name, planID, err)
	}
	grouped, err := scanManeuvers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s get plan %q: %w", s.q.name, planID, err)
	}

	return s.build(rec, grouped[planID])
}

func (s *planStore) ListPlans(ctx context.Context) (_ []*domain.Plan, err error) {
	defer obs.Time(ctx, s.logger, s.q.name+".ListPlans")(&err)

	if s.DB == nil {
		return nil, fmt.Errorf("%s list plans: DB is nil", s.q.name)
	}

	rows, err := s.DB.QueryContext(ctx, s.q.listPlans)
	if err != nil {
		return nil, fmt.Errorf("%s list plans: query plans table: %w", s.q.name, err)
	}
	defer rows.Close()

	recs := make([]domain.PlanRecord, 0, 16)
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s list plans: %w", s.q.name, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s list plans: row iteration: %w", s.q.name, err)
	}
	if len(recs) == 0 {
		return []*domain.Plan{}, nil
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.PlanID)
	}
	mrows, err := s.DB.QueryContext(ctx, s.q.listManeuvers, s.q.listArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("%s list plans: query maneuvers: %w", s.q.name, err)
	}
	grouped, err := scanManeuvers(mrows)
	if err != nil {
		return nil, fmt.Errorf("%s list plans: %w", s.q.name, err)
	}

	out := make([]*domain.Plan, 0, len(recs))
	for _, rec := range recs {
		p, err := s.build(rec, grouped[rec.PlanID])
		if err != nil {
			return nil, fmt.Errorf("%s list plans: %w", s.q.name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *planStore) build(rec domain.PlanRecord, rows []maneuverRow) (*domain.Plan, error) {
	maneuvers, err := assemble(rows)
	if err != nil {
		return nil, fmt.Errorf("plan_id=%s: %w", rec.PlanID, err)
	}
	rec.Maneuvers = maneuvers
	return rec.Build(s.logger)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (domain.PlanRecord, error) {
	var rec domain.PlanRecord
	var created string
	if err := row.Scan(&rec.PlanID, &rec.VehicleID, &created, &rec.Start, &rec.End); err != nil {
		return rec, err
	}
	t, err := time.Parse(createdAtLayout, created)
	if err != nil {
		return rec, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

// scanManeuvers consumes rows and groups them by plan id, preserving order.
func scanManeuvers(rows *sql.Rows) (map[string][]maneuverRow, error) {
	defer rows.Close()

	out := make(map[string][]maneuverRow)
	for rows.Next() {
		var r maneuverRow
		var typ string
		if err := rows.Scan(
			&r.planID, &r.seq, &r.phaseOf, &typ, &r.rec.Start, &r.rec.End,
			&r.rec.StartSpeed, &r.rec.TargetSpeed, &r.rec.MaxAccel, &r.rec.TargetLane, &r.rec.LaneChangeDuration,
		); err != nil {
			return nil, fmt.Errorf("scan maneuver row: %w", err)
		}
		r.rec.Type = domain.ManeuverType(typ)
		out[r.planID] = append(out[r.planID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("maneuver row iteration: %w", err)
	}
	return out, nil
}
