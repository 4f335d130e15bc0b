package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"fleetops/internal/domain"
)

// CSV writes one row per invoice.
type CSV struct{}

func (CSV) Format() string      { return "csv" }
func (CSV) ContentType() string { return "text/csv" }

func (CSV) Export(w io.Writer, invoices []domain.Invoice, now time.Time) error {
	cw := csv.NewWriter(w)
	headers := []string{"Number", "Customer", "Status", "Currency", "Subtotal", "Tax", "Total", "Issued", "Due", "Paid", "Lines"}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, inv := range invoices {
		paid := ""
		if inv.PaidAt != nil {
			paid = inv.PaidAt.Format(time.DateOnly)
		}
		record := []string{
			inv.Number,
			inv.Customer,
			string(inv.EffectiveStatus(now)),
			inv.Currency,
			inv.Subtotal.String(),
			inv.Tax.String(),
			inv.Total.String(),
			inv.IssuedAt.Format(time.DateOnly),
			inv.DueAt.Format(time.DateOnly),
			paid,
			strconv.Itoa(len(inv.Lines)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", inv.Number, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
