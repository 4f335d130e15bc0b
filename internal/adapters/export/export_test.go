package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
)

func sampleInvoices(now time.Time) []domain.Invoice {
	inv := domain.Invoice{
		Number:   "INV-7",
		Customer: "Baltic Tankers",
		TaxRate:  0.2,
		IssuedAt: now.AddDate(0, 0, -40),
		Lines:    []domain.InvoiceLine{{Description: "Hull survey", Quantity: 1, UnitPrice: 150000}},
	}
	if err := inv.Normalize(); err != nil {
		panic(err)
	}
	inv.Status = domain.InvoiceSent
	return []domain.Invoice{inv}
}

func TestCSVExport(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Export(&buf, sampleInvoices(now), now))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Number", rows[0][0])
	assert.Equal(t, []string{"INV-7", "Baltic Tankers", "overdue", "USD", "1500.00", "300.00", "1800.00"}, rows[1][:7])
}

func TestPDFExport(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, PDF{Company: "North Sea Fleet"}.Export(&buf, sampleInvoices(now), now))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, PDF{}.Export(&buf, nil, now))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
