package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Money amounts are integer cents.
type Cents int64

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

const (
	TxIncome  = "income"
	TxExpense = "expense"
)

type Transaction struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // income|expense
	Category    string    `json:"category"`
	Amount      Cents     `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	VesselRef   *string   `json:"vessel_ref,omitempty"`
	InvoiceRef  *string   `json:"invoice_ref,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *Transaction) Normalize() error {
	if t.Kind != TxIncome && t.Kind != TxExpense {
		return fmt.Errorf("%w: transaction kind must be income or expense", ErrInvalid)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: transaction amount must be positive", ErrInvalid)
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
	t.Currency = strings.ToUpper(t.Currency)
	if t.Category == "" {
		t.Category = "uncategorized"
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now().UTC()
	}
	return nil
}

type FinanceSummary struct {
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Income     Cents            `json:"income"`
	Expense    Cents            `json:"expense"`
	Net        Cents            `json:"net"`
	ByCategory map[string]Cents `json:"by_category,omitempty"`
}

// Summarize totals transactions; expenses are negative in ByCategory.
func Summarize(txs []Transaction, from, to time.Time) FinanceSummary {
	s := FinanceSummary{From: from, To: to, ByCategory: map[string]Cents{}}
	for _, t := range txs {
		switch t.Kind {
		case TxIncome:
			s.Income += t.Amount
			s.ByCategory[t.Category] += t.Amount
		case TxExpense:
			s.Expense += t.Amount
			s.ByCategory[t.Category] -= t.Amount
		}
	}
	s.Net = s.Income - s.Expense
	return s
}

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceVoid    InvoiceStatus = "void"
	InvoiceOverdue InvoiceStatus = "overdue"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceVoid},
	InvoiceSent:    {InvoicePaid, InvoiceVoid},
	InvoiceOverdue: {InvoicePaid, InvoiceVoid},
}

type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   Cents   `json:"unit_price"`
}

func (l InvoiceLine) Amount() Cents {
	return Cents(math.Round(l.Quantity * float64(l.UnitPrice)))
}

type Invoice struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	Customer  string        `json:"customer"`
	Currency  string        `json:"currency"`
	Status    InvoiceStatus `json:"status"`
	TaxRate   float64       `json:"tax_rate"` // 0..1
	Lines     []InvoiceLine `json:"lines,omitempty"`
	Subtotal  Cents         `json:"subtotal"`
	Tax       Cents         `json:"tax"`
	Total     Cents         `json:"total"`
	IssuedAt  time.Time     `json:"issued_at"`
	DueAt     time.Time     `json:"due_at"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Recalculate derives subtotal, tax and total from the lines.
func (inv *Invoice) Recalculate() {
	var sub Cents
	for _, l := range inv.Lines {
		sub += l.Amount()
	}
	inv.Subtotal = sub
	inv.Tax = Cents(math.Round(float64(sub) * inv.TaxRate))
	inv.Total = inv.Subtotal + inv.Tax
}

func (inv *Invoice) Normalize() error {
	if strings.TrimSpace(inv.Customer) == "" {
		return fmt.Errorf("%w: invoice customer is required", ErrInvalid)
	}
	if len(inv.Lines) == 0 {
		return fmt.Errorf("%w: invoice needs at least one line", ErrInvalid)
	}
	for _, l := range inv.Lines {
		if l.Quantity <= 0 || l.UnitPrice < 0 {
			return fmt.Errorf("%w: invoice line %q has bad quantity or price", ErrInvalid, l.Description)
		}
	}
	if inv.TaxRate < 0 || inv.TaxRate > 1 {
		return fmt.Errorf("%w: tax rate must be within 0..1", ErrInvalid)
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	inv.Currency = strings.ToUpper(inv.Currency)
	if inv.Status == "" {
		inv.Status = InvoiceDraft
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now().UTC()
	}
	if inv.DueAt.IsZero() {
		inv.DueAt = inv.IssuedAt.AddDate(0, 0, 30)
	}
	if inv.DueAt.Before(inv.IssuedAt) {
		return fmt.Errorf("%w: due date precedes issue date", ErrInvalid)
	}
	inv.Recalculate()
	return nil
}

// EffectiveStatus reports overdue for sent invoices past their due date.
func (inv Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if inv.Status == InvoiceSent && now.After(inv.DueAt) {
		return InvoiceOverdue
	}
	return inv.Status
}

// Transition moves the invoice to the target status if allowed.
func (inv *Invoice) Transition(to InvoiceStatus, now time.Time) error {
	from := inv.EffectiveStatus(now)
	for _, s := range invoiceTransitions[from] {
		if s == to {
			inv.Status = to
			if to == InvoicePaid {
				t := now
				inv.PaidAt = &t
			}
			return nil
		}
	}
	return fmt.Errorf("%w: invoice cannot move from %s to %s", ErrConflict, from, to)
}
