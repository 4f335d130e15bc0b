package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/domain"
)

const transactionColumns = `id, kind, category, amount_cents, currency, description, vessel_ref, invoice_ref, occurred_at, created_at`

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.Kind, &t.Category, &t.Amount, &t.Currency, &t.Description,
		&t.VesselRef, &t.InvoiceRef, &t.OccurredAt, &t.CreatedAt)
	return t, err
}

func (db *DB) CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	out, err := scanTransaction(db.Pool.QueryRow(ctx, `
		INSERT INTO transactions (kind, category, amount_cents, currency, description, vessel_ref, invoice_ref, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		t.Kind, t.Category, int64(t.Amount), t.Currency, t.Description, t.VesselRef, t.InvoiceRef, t.OccurredAt))
	return out, mapErr("create transaction", err)
}

// ListTransactions returns transactions in [from, to), optionally filtered by kind.
func (db *DB) ListTransactions(ctx context.Context, from, to time.Time, kind string) ([]domain.Transaction, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2 AND ($3 = '' OR kind = $3)
		ORDER BY occurred_at DESC`, from, to, kind)
	if err != nil {
		return nil, mapErr("list transactions", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Transaction, error) {
		return scanTransaction(r)
	})
	return out, mapErr("list transactions", err)
}

const invoiceColumns = `id, number, customer, currency, status, tax_rate, lines, subtotal_cents, tax_cents, total_cents, issued_at, due_at, paid_at, created_at`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var (
		inv   domain.Invoice
		lines []byte
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.Customer, &inv.Currency, &inv.Status, &inv.TaxRate, &lines,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.IssuedAt, &inv.DueAt, &inv.PaidAt, &inv.CreatedAt); err != nil {
		return inv, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &inv.Lines); err != nil {
			return inv, err
		}
	}
	return inv, nil
}

func (db *DB) CreateInvoice(ctx context.Context, inv domain.Invoice) (domain.Invoice, error) {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return inv, err
	}
	out, err := scanInvoice(db.Pool.QueryRow(ctx, `
		INSERT INTO invoices (number, customer, currency, status, tax_rate, lines, subtotal_cents, tax_cents, total_cents, issued_at, due_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+invoiceColumns,
		inv.Number, inv.Customer, inv.Currency, inv.Status, inv.TaxRate, lines,
		int64(inv.Subtotal), int64(inv.Tax), int64(inv.Total), inv.IssuedAt, inv.DueAt, inv.PaidAt))
	return out, mapErr("create invoice", err)
}

func (db *DB) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	out, err := scanInvoice(db.Pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	return out, mapErr("get invoice", err)
}

func (db *DB) ListInvoices(ctx context.Context, status string) ([]domain.Invoice, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE $1 = '' OR status = $1
		ORDER BY issued_at DESC, number`, status)
	if err != nil {
		return nil, mapErr("list invoices", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Invoice, error) {
		return scanInvoice(r)
	})
	return out, mapErr("list invoices", err)
}

func (db *DB) UpdateInvoiceStatus(ctx context.Context, inv domain.Invoice) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE invoices SET status = $2, paid_at = $3 WHERE id = $1`,
		inv.ID, inv.Status, inv.PaidAt)
	return affected("update invoice status", tag, err)
}
