package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

const complianceDocColumns = `id, title, kind, vessel_ref, document_id, issued_at, expires_at, created_at`

func scanComplianceDocument(row pgx.Row) (domain.ComplianceDocument, error) {
	var d domain.ComplianceDocument
	err := row.Scan(&d.ID, &d.Title, &d.Kind, &d.VesselRef, &d.DocumentID, &d.IssuedAt, &d.ExpiresAt, &d.CreatedAt)
	return d, err
}

func (db *DB) CreateComplianceDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	out, err := scanComplianceDocument(db.Pool.QueryRow(ctx, `
		INSERT INTO compliance_documents (title, kind, vessel_ref, document_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+complianceDocColumns,
		d.Title, d.Kind, d.VesselRef, d.DocumentID, d.IssuedAt, d.ExpiresAt))
	return out, mapErr("create compliance document", err)
}

func (db *DB) UpdateComplianceDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	out, err := scanComplianceDocument(db.Pool.QueryRow(ctx, `
		UPDATE compliance_documents
		SET title = $2, kind = $3, vessel_ref = $4, document_id = $5, issued_at = $6, expires_at = $7
		WHERE id = $1
		RETURNING `+complianceDocColumns,
		d.ID, d.Title, d.Kind, d.VesselRef, d.DocumentID, d.IssuedAt, d.ExpiresAt))
	return out, mapErr("update compliance document", err)
}

func (db *DB) DeleteComplianceDocument(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM compliance_documents WHERE id = $1`, id)
	return affected("delete compliance document", tag, err)
}

func (db *DB) GetComplianceDocument(ctx context.Context, id string) (domain.ComplianceDocument, error) {
	out, err := scanComplianceDocument(db.Pool.QueryRow(ctx,
		`SELECT `+complianceDocColumns+` FROM compliance_documents WHERE id = $1`, id))
	return out, mapErr("get compliance document", err)
}

func (db *DB) ListComplianceDocuments(ctx context.Context) ([]domain.ComplianceDocument, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+complianceDocColumns+` FROM compliance_documents ORDER BY expires_at NULLS LAST, title`)
	if err != nil {
		return nil, mapErr("list compliance documents", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ComplianceDocument, error) {
		return scanComplianceDocument(r)
	})
	return out, mapErr("list compliance documents", err)
}

// Audits

const auditColumns = `id, title, vessel_ref, auditor, standard, scheduled_at, completed_at, status, evaluation, created_at`

func scanAudit(row pgx.Row) (domain.Audit, error) {
	var (
		a    domain.Audit
		eval []byte
	)
	if err := row.Scan(&a.ID, &a.Title, &a.VesselRef, &a.Auditor, &a.Standard,
		&a.ScheduledAt, &a.CompletedAt, &a.Status, &eval, &a.CreatedAt); err != nil {
		return a, err
	}
	if len(eval) > 0 {
		var ev domain.Evaluation
		if err := json.Unmarshal(eval, &ev); err != nil {
			return a, err
		}
		a.Evaluation = &ev
	}
	return a, nil
}

func (db *DB) CreateAudit(ctx context.Context, a domain.Audit) (domain.Audit, error) {
	err := withTx(ctx, db, func(tx pgx.Tx) error {
		out, err := scanAudit(tx.QueryRow(ctx, `
			INSERT INTO audits (title, vessel_ref, auditor, standard, scheduled_at, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+auditColumns,
			a.Title, a.VesselRef, a.Auditor, a.Standard, a.ScheduledAt, a.Status))
		if err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, it := range a.Items {
			batch.Queue(`
				INSERT INTO audit_items (audit_id, id, position, section, question, status, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				out.ID, it.ID, i, it.Section, it.Question, it.Status, it.Notes)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}
		out.Items = a.Items
		a = out
		return nil
	})
	return a, mapErr("create audit", err)
}

func (db *DB) GetAudit(ctx context.Context, id string) (domain.Audit, error) {
	a, err := scanAudit(db.Pool.QueryRow(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = $1`, id))
	if err != nil {
		return a, mapErr("get audit", err)
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, section, question, status, notes FROM audit_items
		WHERE audit_id = $1 ORDER BY position`, id)
	if err != nil {
		return a, mapErr("get audit items", err)
	}
	a.Items, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ChecklistItem, error) {
		var it domain.ChecklistItem
		err := r.Scan(&it.ID, &it.Section, &it.Question, &it.Status, &it.Notes)
		return it, err
	})
	return a, mapErr("get audit items", err)
}

// ListAudits returns audits without their checklist items.
func (db *DB) ListAudits(ctx context.Context) ([]domain.Audit, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+auditColumns+` FROM audits ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr("list audits", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Audit, error) {
		return scanAudit(r)
	})
	return out, mapErr("list audits", err)
}

func (db *DB) UpdateChecklistItem(ctx context.Context, auditID string, item domain.ChecklistItem) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE audit_items SET status = $3, notes = $4
		WHERE audit_id = $1 AND id = $2`, auditID, item.ID, item.Status, item.Notes)
	if err != nil {
		return mapErr("update checklist item", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("update checklist item", pgx.ErrNoRows)
	}
	_, err = db.Pool.Exec(ctx, `UPDATE audits SET status = 'in_progress' WHERE id = $1 AND status = 'planned'`, auditID)
	return mapErr("update audit status", err)
}

func (db *DB) SaveEvaluation(ctx context.Context, auditID string, ev domain.Evaluation) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `
		UPDATE audits SET evaluation = $2, status = 'completed', completed_at = $3
		WHERE id = $1`, auditID, payload, ev.EvaluatedAt)
	return affected("save evaluation", tag, err)
}

// Risks

const riskColumns = `id, title, description, category, likelihood, impact, severity, owner, mitigation, status, vessel_ref, created_at, updated_at`

func scanRisk(row pgx.Row) (domain.Risk, error) {
	var r domain.Risk
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &r.Likelihood, &r.Impact,
		&r.Severity, &r.Owner, &r.Mitigation, &r.Status, &r.VesselRef, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (db *DB) CreateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error) {
	out, err := scanRisk(db.Pool.QueryRow(ctx, `
		INSERT INTO risks (title, description, category, likelihood, impact, severity, owner, mitigation, status, vessel_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+riskColumns,
		r.Title, r.Description, r.Category, r.Likelihood, r.Impact, r.Severity, r.Owner, r.Mitigation, r.Status, r.VesselRef))
	return out, mapErr("create risk", err)
}

func (db *DB) UpdateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error) {
	out, err := scanRisk(db.Pool.QueryRow(ctx, `
		UPDATE risks SET title = $2, description = $3, category = $4, likelihood = $5, impact = $6,
			severity = $7, owner = $8, mitigation = $9, status = $10, vessel_ref = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+riskColumns,
		r.ID, r.Title, r.Description, r.Category, r.Likelihood, r.Impact, r.Severity, r.Owner, r.Mitigation, r.Status, r.VesselRef))
	return out, mapErr("update risk", err)
}

func (db *DB) DeleteRisk(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM risks WHERE id = $1`, id)
	return affected("delete risk", tag, err)
}

func (db *DB) GetRisk(ctx context.Context, id string) (domain.Risk, error) {
	out, err := scanRisk(db.Pool.QueryRow(ctx, `SELECT `+riskColumns+` FROM risks WHERE id = $1`, id))
	return out, mapErr("get risk", err)
}

func (db *DB) ListRisks(ctx context.Context) ([]domain.Risk, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+riskColumns+` FROM risks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, mapErr("list risks", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Risk, error) {
		return scanRisk(r)
	})
	return out, mapErr("list risks", err)
}
