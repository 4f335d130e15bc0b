package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

const droneColumns = `id, name, model, status, battery, lat, lon, altitude, vessel_ref, last_seen_at, created_at`

func scanDrone(row pgx.Row) (domain.Drone, error) {
	var d domain.Drone
	err := row.Scan(&d.ID, &d.Name, &d.Model, &d.Status, &d.Battery, &d.Position.Lat, &d.Position.Lon,
		&d.Altitude, &d.VesselRef, &d.LastSeenAt, &d.CreatedAt)
	return d, err
}

func (db *DB) CreateDrone(ctx context.Context, d domain.Drone) (domain.Drone, error) {
	out, err := scanDrone(db.Pool.QueryRow(ctx, `
		INSERT INTO drones (name, model, status, battery, lat, lon, altitude, vessel_ref, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+droneColumns,
		d.Name, d.Model, d.Status, d.Battery, d.Position.Lat, d.Position.Lon, d.Altitude, d.VesselRef, d.LastSeenAt))
	return out, mapErr("create drone", err)
}

func (db *DB) UpdateDrone(ctx context.Context, d domain.Drone) (domain.Drone, error) {
	out, err := scanDrone(db.Pool.QueryRow(ctx, `
		UPDATE drones SET name = $2, model = $3, status = $4, battery = $5, lat = $6, lon = $7,
			altitude = $8, vessel_ref = $9, last_seen_at = $10
		WHERE id = $1
		RETURNING `+droneColumns,
		d.ID, d.Name, d.Model, d.Status, d.Battery, d.Position.Lat, d.Position.Lon, d.Altitude, d.VesselRef, d.LastSeenAt))
	return out, mapErr("update drone", err)
}

func (db *DB) DeleteDrone(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM drones WHERE id = $1`, id)
	return affected("delete drone", tag, err)
}

func (db *DB) GetDrone(ctx context.Context, id string) (domain.Drone, error) {
	out, err := scanDrone(db.Pool.QueryRow(ctx, `SELECT `+droneColumns+` FROM drones WHERE id = $1`, id))
	return out, mapErr("get drone", err)
}

func (db *DB) ListDrones(ctx context.Context) ([]domain.Drone, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+droneColumns+` FROM drones ORDER BY name`)
	if err != nil {
		return nil, mapErr("list drones", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Drone, error) {
		return scanDrone(r)
	})
	return out, mapErr("list drones", err)
}

func (db *DB) RecordTelemetry(ctx context.Context, t domain.Telemetry) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO drone_telemetry (drone_id, battery, lat, lon, altitude, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.DroneID, t.Battery, t.Position.Lat, t.Position.Lon, t.Altitude, t.RecordedAt)
	return mapErr("record telemetry", err)
}
