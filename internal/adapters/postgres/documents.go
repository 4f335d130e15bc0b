package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

const documentColumns = `id, name, category, content_type, size_bytes, object_key, uploaded_by, created_at`

func scanDocument(row pgx.Row) (domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.Name, &d.Category, &d.ContentType, &d.Size, &d.ObjectKey, &d.UploadedBy, &d.CreatedAt)
	return d, err
}

func (db *DB) CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	out, err := scanDocument(db.Pool.QueryRow(ctx, `
		INSERT INTO documents (name, category, content_type, size_bytes, object_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+documentColumns,
		d.Name, d.Category, d.ContentType, d.Size, d.ObjectKey, d.UploadedBy))
	return out, mapErr("create document", err)
}

func (db *DB) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	out, err := scanDocument(db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	return out, mapErr("get document", err)
}

func (db *DB) ListDocuments(ctx context.Context, category string) ([]domain.Document, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC`, category)
	if err != nil {
		return nil, mapErr("list documents", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Document, error) {
		return scanDocument(r)
	})
	return out, mapErr("list documents", err)
}

func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return affected("delete document", tag, err)
}
