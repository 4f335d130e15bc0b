package finance

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetops/internal/adapters/export"
	"fleetops/internal/domain"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/testutil"
)

var fixedNow = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

func setup() (*Service, *testutil.Memory) {
	mem := testutil.NewMemory()
	svc := New(mem, auditlog.New(mem, zap.NewNop()), zap.NewNop(), export.CSV{}, export.PDF{})
	svc.now = func() time.Time { return fixedNow }
	return svc, mem
}

func TestSummaryForMonth(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	for _, tx := range []domain.Transaction{
		{Kind: domain.TxIncome, Category: "charter", Amount: 500000, OccurredAt: fixedNow.AddDate(0, 0, -3)},
		{Kind: domain.TxExpense, Category: "fuel", Amount: 120000, OccurredAt: fixedNow.AddDate(0, 0, -1)},
		{Kind: domain.TxExpense, Category: "crew", Amount: 90000, OccurredAt: fixedNow.AddDate(0, -1, 0)},
	} {
		_, err := svc.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	from, to := MonthRange(fixedNow)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), to)

	sum, err := svc.Summary(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(500000), sum.Income)
	assert.Equal(t, domain.Cents(120000), sum.Expense)
	assert.Equal(t, domain.Cents(380000), sum.Net)

	txs, err := svc.ListTransactions(ctx, from, to, "")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "fuel", txs[0].Category)

	_, err = svc.ListTransactions(ctx, to, from, "")
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, err = svc.ListTransactions(ctx, from, to, "refund")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestCreateTransactionValidates(t *testing.T) {
	svc, _ := setup()
	_, err := svc.CreateTransaction(context.Background(), domain.Transaction{Kind: domain.TxIncome, Amount: -5})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestInvoiceLifecycle(t *testing.T) {
	svc, mem := setup()
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, domain.Invoice{
		Customer: "Fjord Line",
		TaxRate:  0.25,
		IssuedAt: fixedNow.AddDate(0, 0, -45),
		Status:   domain.InvoicePaid,
		Lines:    []domain.InvoiceLine{{Description: "Drone survey", Quantity: 2, UnitPrice: 40000}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceDraft, inv.Status)
	assert.Equal(t, domain.Cents(100000), inv.Total)
	assert.NotEmpty(t, inv.Number)

	_, err = svc.Transition(ctx, inv.ID, domain.InvoicePaid)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Transition(ctx, inv.ID, domain.InvoiceSent)
	require.NoError(t, err)

	got, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceOverdue, got.Status)

	overdue, err := svc.ListInvoices(ctx, "overdue")
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	total, n, err := svc.Outstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.Cents(100000), total)

	paid, err := svc.Transition(ctx, inv.ID, domain.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)

	require.Len(t, mem.Transactions, 1)
	assert.Equal(t, domain.Cents(100000), mem.Transactions[0].Amount)
	require.NotNil(t, mem.Transactions[0].InvoiceRef)
	assert.Equal(t, inv.ID, *mem.Transactions[0].InvoiceRef)
}

func TestExport(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	_, err := svc.CreateInvoice(ctx, domain.Invoice{
		Customer: "Stena",
		Lines:    []domain.InvoiceLine{{Description: "Audit", Quantity: 1, UnitPrice: 1000}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, "CSV", "", &buf))
	assert.Contains(t, buf.String(), "Stena")

	assert.ErrorIs(t, svc.Export(ctx, "xml", "", &buf), domain.ErrInvalid)
}
