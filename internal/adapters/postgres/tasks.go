package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

const taskColumns = `id, title, description, severity, status, required_skills, estimated_hours, due_at, lat, lon,
	compliance_impact, asset_criticality, assignee_ref, risk_ref, created_at`

func scanTask(row pgx.Row) (domain.ScheduledTask, error) {
	var (
		t        domain.ScheduledTask
		lat, lon *float64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Severity, &t.Status, &t.RequiredSkills,
		&t.EstimatedHours, &t.DueAt, &lat, &lon, &t.ComplianceImpact, &t.AssetCriticality,
		&t.AssigneeRef, &t.RiskRef, &t.CreatedAt); err != nil {
		return t, err
	}
	if lat != nil && lon != nil {
		t.Location = &domain.Position{Lat: *lat, Lon: *lon}
	}
	return t, nil
}

func location(p *domain.Position) (lat, lon *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lon
}

func skills(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (db *DB) CreateTask(ctx context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error) {
	lat, lon := location(t.Location)
	out, err := scanTask(db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, severity, status, required_skills, estimated_hours, due_at, lat, lon,
			compliance_impact, asset_criticality, assignee_ref, risk_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Severity, t.Status, skills(t.RequiredSkills), t.EstimatedHours, t.DueAt, lat, lon,
		t.ComplianceImpact, t.AssetCriticality, t.AssigneeRef, t.RiskRef))
	return out, mapErr("create task", err)
}

const updateTaskSQL = `
	UPDATE tasks SET title = $2, description = $3, severity = $4, status = $5, required_skills = $6,
		estimated_hours = $7, due_at = $8, lat = $9, lon = $10, compliance_impact = $11,
		asset_criticality = $12, assignee_ref = $13, risk_ref = $14
	WHERE id = $1
	RETURNING ` + taskColumns

func updateTaskArgs(t domain.ScheduledTask) []any {
	lat, lon := location(t.Location)
	return []any{t.ID, t.Title, t.Description, t.Severity, t.Status, skills(t.RequiredSkills), t.EstimatedHours,
		t.DueAt, lat, lon, t.ComplianceImpact, t.AssetCriticality, t.AssigneeRef, t.RiskRef}
}

func (db *DB) UpdateTask(ctx context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error) {
	out, err := scanTask(db.Pool.QueryRow(ctx, updateTaskSQL, updateTaskArgs(t)...))
	return out, mapErr("update task", err)
}

func (db *DB) GetTask(ctx context.Context, id string) (domain.ScheduledTask, error) {
	out, err := scanTask(db.Pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	return out, mapErr("get task", err)
}

func (db *DB) ListTasks(ctx context.Context, openOnly bool) ([]domain.ScheduledTask, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE NOT $1 OR status NOT IN ('completed', 'cancelled')
		ORDER BY created_at`, openOnly)
	if err != nil {
		return nil, mapErr("list tasks", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ScheduledTask, error) {
		return scanTask(r)
	})
	return out, mapErr("list tasks", err)
}

// AssignTask sets the assignee and bumps the technician's workload in one
// transaction. Only a pending task can be claimed.
func (db *DB) AssignTask(ctx context.Context, taskID, technicianID string) error {
	return withTx(ctx, db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tasks SET assignee_ref = $2, status = 'assigned'
			WHERE id = $1 AND status = 'pending'`, taskID, technicianID)
		if err != nil {
			return mapErr("assign task", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("assign task %s: %w: task is not pending", taskID, domain.ErrConflict)
		}
		tag, err = tx.Exec(ctx, `
			UPDATE technicians SET active_tasks = active_tasks + 1 WHERE id = $1`, technicianID)
		return affected("assign task: technician", tag, err)
	})
}

// ReleaseTask saves t and frees one workload slot on technicianID in one transaction.
func (db *DB) ReleaseTask(ctx context.Context, t domain.ScheduledTask, technicianID string) (domain.ScheduledTask, error) {
	var out domain.ScheduledTask
	err := withTx(ctx, db, func(tx pgx.Tx) error {
		var err error
		out, err = scanTask(tx.QueryRow(ctx, updateTaskSQL, updateTaskArgs(t)...))
		if err != nil {
			return mapErr("release task", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE technicians SET active_tasks = GREATEST(active_tasks - 1, 0) WHERE id = $1`, technicianID)
		return mapErr("release task: technician", err)
	})
	return out, err
}

const technicianColumns = `id, name, skills, lat, lon, available, active_tasks, max_tasks, rating`

func scanTechnician(row pgx.Row) (domain.Technician, error) {
	var t domain.Technician
	err := row.Scan(&t.ID, &t.Name, &t.Skills, &t.Position.Lat, &t.Position.Lon,
		&t.Available, &t.ActiveTasks, &t.MaxTasks, &t.Rating)
	return t, err
}

func (db *DB) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY name`)
	if err != nil {
		return nil, mapErr("list technicians", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Technician, error) {
		return scanTechnician(r)
	})
	return out, mapErr("list technicians", err)
}

func (db *DB) UpsertTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error) {
	if t.ID == "" {
		out, err := scanTechnician(db.Pool.QueryRow(ctx, `
			INSERT INTO technicians (name, skills, lat, lon, available, active_tasks, max_tasks, rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+technicianColumns,
			t.Name, skills(t.Skills), t.Position.Lat, t.Position.Lon, t.Available, t.ActiveTasks, t.MaxTasks, t.Rating))
		return out, mapErr("create technician", err)
	}
	out, err := scanTechnician(db.Pool.QueryRow(ctx, `
		INSERT INTO technicians (id, name, skills, lat, lon, available, active_tasks, max_tasks, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, skills = EXCLUDED.skills, lat = EXCLUDED.lat,
			lon = EXCLUDED.lon, available = EXCLUDED.available, active_tasks = EXCLUDED.active_tasks,
			max_tasks = EXCLUDED.max_tasks, rating = EXCLUDED.rating
		RETURNING `+technicianColumns,
		t.ID, t.Name, skills(t.Skills), t.Position.Lat, t.Position.Lon, t.Available, t.ActiveTasks, t.MaxTasks, t.Rating))
	return out, mapErr("upsert technician", err)
}
