package repositories

import (
	"database/sql"
	"log/slog"
)

var postgresQueries = planQueries{
	name: "postgres",
	upsertPlan: `
	INSERT INTO plans (plan_id, vehicle_id, created_at, start_distance, end_distance)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (plan_id) DO UPDATE SET
		vehicle_id = EXCLUDED.vehicle_id,
		created_at = EXCLUDED.created_at,
		start_distance = EXCLUDED.start_distance,
		end_distance = EXCLUDED.end_distance;
	`,
	deleteManeuvers: `DELETE FROM maneuvers WHERE plan_id = $1;`,
	insertManeuver: `
	INSERT INTO maneuvers (
		plan_id, seq, phase_of, maneuver_type, start_distance, end_distance,
		start_speed, target_speed, max_accel, target_lane, lane_change_duration
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`,
	selectPlan: `
	SELECT plan_id, vehicle_id, created_at, start_distance, end_distance
	FROM plans
	WHERE plan_id = $1;
	`,
	selectManeuvers: `
	SELECT plan_id, seq, phase_of, maneuver_type, start_distance, end_distance,
		start_speed, target_speed, max_accel, target_lane, lane_change_duration
	FROM maneuvers
	WHERE plan_id = $1
	ORDER BY seq;
	`,
	listPlans: `
	SELECT plan_id, vehicle_id, created_at, start_distance, end_distance
	FROM plans
	ORDER BY created_at DESC, plan_id;
	`,
	listManeuvers: `
	SELECT plan_id, seq, phase_of, maneuver_type, start_distance, end_distance,
		start_speed, target_speed, max_accel, target_lane, lane_change_duration
	FROM maneuvers
	WHERE plan_id = ANY($1::text[])
	ORDER BY plan_id, seq;
	`,
	listArgs:        func(ids []string) []any { return []any{ids} },
	migrationDriver: postgresMigrationDriver,
}

// SQLPlanRepository is a Postgres-backed implementation of the PlanRepository
// port, used with the pgx stdlib driver.
type SQLPlanRepository struct{ planStore }

func NewSQLPlanRepository(db *sql.DB, logger *slog.Logger) *SQLPlanRepository {
	return &SQLPlanRepository{planStore{DB: db, q: postgresQueries, logger: logger}}
}
