package finance

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
)

type Service struct {
	repo      ports.FinanceRepository
	recorder  ports.AuditRecorder
	exporters map[string]ports.InvoiceExporter
	log       *zap.Logger
	now       func() time.Time
}

func New(repo ports.FinanceRepository, recorder ports.AuditRecorder, log *zap.Logger, exporters ...ports.InvoiceExporter) *Service {
	s := &Service{repo: repo, recorder: recorder, log: log, now: time.Now, exporters: map[string]ports.InvoiceExporter{}}
	for _, e := range exporters {
		s.exporters[e.Format()] = e
	}
	return s
}

func (s *Service) record(ctx context.Context, action, resourceType, id string, meta map[string]any) {
	s.recorder.Record(ctx, domain.AuditLogEntry{
		Actor:        auditlog.ActorFrom(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Metadata:     meta,
	})
}

func (s *Service) CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if err := t.Normalize(); err != nil {
		return t, err
	}
	out, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		s.log.Error("create transaction", zap.String("kind", t.Kind), zap.Error(err))
		return out, err
	}
	s.record(ctx, "transaction.create", "transaction", out.ID, map[string]any{"amount": int64(out.Amount), "kind": out.Kind})
	return out, nil
}

// ListTransactions returns transactions in [from, to), newest first.
func (s *Service) ListTransactions(ctx context.Context, from, to time.Time, kind string) ([]domain.Transaction, error) {
	if kind != "" && kind != domain.TxIncome && kind != domain.TxExpense {
		return nil, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrInvalid, kind)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty date range", domain.ErrInvalid)
	}
	txs, err := s.repo.ListTransactions(ctx, from, to, kind)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].OccurredAt.After(txs[j].OccurredAt) })
	return txs, nil
}

func (s *Service) Summary(ctx context.Context, from, to time.Time) (domain.FinanceSummary, error) {
	txs, err := s.ListTransactions(ctx, from, to, "")
	if err != nil {
		return domain.FinanceSummary{}, err
	}
	return domain.Summarize(txs, from, to), nil
}

// MonthRange returns the first instant of t's month and of the next month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}

func (s *Service) CreateInvoice(ctx context.Context, inv domain.Invoice) (domain.Invoice, error) {
	inv.Status = domain.InvoiceDraft
	if err := inv.Normalize(); err != nil {
		return inv, err
	}
	if inv.Number == "" {
		inv.Number = fmt.Sprintf("INV-%s", inv.IssuedAt.Format("20060102-150405"))
	}
	out, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		s.log.Error("create invoice", zap.String("customer", inv.Customer), zap.Error(err))
		return out, err
	}
	s.record(ctx, "invoice.create", "invoice", out.ID, map[string]any{"total": int64(out.Total), "number": out.Number})
	return out, nil
}

// GetInvoice reports the effective status, so sent invoices past due read as overdue.
func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return inv, err
	}
	inv.Status = inv.EffectiveStatus(s.now())
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, status string) ([]domain.Invoice, error) {
	query := status
	if status == string(domain.InvoiceOverdue) {
		query = string(domain.InvoiceSent)
	}
	invs, err := s.repo.ListInvoices(ctx, query)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := invs[:0]
	for _, inv := range invs {
		inv.Status = inv.EffectiveStatus(now)
		if status != "" && string(inv.Status) != status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// Outstanding sums totals of invoices that are sent or overdue.
func (s *Service) Outstanding(ctx context.Context) (domain.Cents, int, error) {
	invs, err := s.repo.ListInvoices(ctx, string(domain.InvoiceSent))
	if err != nil {
		return 0, 0, err
	}
	var sum domain.Cents
	for _, inv := range invs {
		sum += inv.Total
	}
	return sum, len(invs), nil
}

// Transition moves an invoice along draft → sent → paid (or void). Paying an
// invoice books the matching income transaction.
func (s *Service) Transition(ctx context.Context, id string, to domain.InvoiceStatus) (domain.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return inv, err
	}
	from := inv.EffectiveStatus(s.now())
	if err := inv.Transition(to, s.now().UTC()); err != nil {
		return inv, err
	}
	if err := s.repo.UpdateInvoiceStatus(ctx, inv); err != nil {
		s.log.Error("update invoice status", zap.String("id", id), zap.Error(err))
		return inv, err
	}
	s.record(ctx, "invoice.transition", "invoice", id, map[string]any{"from": string(from), "to": string(to)})

	if to == domain.InvoicePaid {
		ref := inv.ID
		_, err := s.CreateTransaction(ctx, domain.Transaction{
			Kind:        domain.TxIncome,
			Category:    "invoice",
			Amount:      inv.Total,
			Currency:    inv.Currency,
			Description: "Payment " + inv.Number,
			InvoiceRef:  &ref,
			OccurredAt:  *inv.PaidAt,
		})
		if err != nil {
			s.log.Warn("payment transaction not booked", zap.String("invoice_id", id), zap.Error(err))
		}
	}
	return inv, nil
}

// Export writes invoices with the given status in the requested format.
func (s *Service) Export(ctx context.Context, format, status string, w io.Writer) error {
	exp, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalid, format)
	}
	invs, err := s.ListInvoices(ctx, status)
	if err != nil {
		return err
	}
	if err := exp.Export(w, invs, s.now()); err != nil {
		s.log.Error("invoice export", zap.String("format", format), zap.Error(err))
		return err
	}
	return nil
}

// Exporter returns the exporter registered for format.
func (s *Service) Exporter(format string) (ports.InvoiceExporter, bool) {
	e, ok := s.exporters[strings.ToLower(format)]
	return e, ok
}
