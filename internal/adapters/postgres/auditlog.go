package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

func (db *DB) InsertAuditLog(ctx context.Context, e domain.AuditLogEntry) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO audit_logs (actor, action, resource_type, resource_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Actor, e.Action, e.ResourceType, e.ResourceID, payload, e.CreatedAt)
	return mapErr("insert audit log", err)
}

// ListAuditLogs returns the newest entries first.
func (db *DB) ListAuditLogs(ctx context.Context, f domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, actor, action, resource_type, resource_id, metadata, created_at
		FROM audit_logs
		WHERE ($1 = '' OR actor = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR resource_type = $3)
		  AND ($4 = '' OR resource_id = $4)
		ORDER BY created_at DESC
		LIMIT $5`, f.Actor, f.Action, f.ResourceType, f.ResourceID, f.Limit)
	if err != nil {
		return nil, mapErr("list audit logs", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.AuditLogEntry, error) {
		var (
			e    domain.AuditLogEntry
			meta []byte
		)
		if err := r.Scan(&e.ID, &e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &meta, &e.CreatedAt); err != nil {
			return e, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return e, err
			}
		}
		return e, nil
	})
	return out, mapErr("list audit logs", err)
}
