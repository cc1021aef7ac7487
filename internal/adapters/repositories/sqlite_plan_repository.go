package repositories

import (
	"database/sql"
	"log/slog"
)

var sqliteQueries = planQueries{
	name: "sqlite",
	upsertPlan: `
	INSERT OR REPLACE INTO plans (
		plan_id,
		vehicle_id,
		created_at,
		start_distance,
		end_distance
	)
	VALUES (?, ?, ?, ?, ?);
	`,
	deleteManeuvers: `DELETE FROM maneuvers WHERE plan_id = ?;`,
	insertManeuver: `
	INSERT INTO maneuvers (
		plan_id, seq, phase_of, maneuver_type, start_distance, end_distance,
		start_speed, target_speed, max_accel, target_lane, lane_change_duration
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
	selectPlan: `
	SELECT plan_id, vehicle_id, created_at, start_distance, end_distance
	FROM plans
	WHERE plan_id = ?;
	`,
	selectManeuvers: `
	SELECT plan_id, seq, phase_of, maneuver_type, start_distance, end_distance,
		start_speed, target_speed, max_accel, target_lane, lane_change_duration
	FROM maneuvers
	WHERE plan_id = ?
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
	ORDER BY plan_id, seq;
	`,
	listArgs:        func([]string) []any { return nil },
	migrationDriver: sqliteMigrationDriver,
}

// SQLite-backed implementation of the PlanRepository port.
type SqlitePlanRepository struct{ planStore }

func NewSqlitePlanRepository(db *sql.DB, logger *slog.Logger) *SqlitePlanRepository {
	return &SqlitePlanRepository{planStore{DB: db, q: sqliteQueries, logger: logger}}
}
