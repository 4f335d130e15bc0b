package httpadapter

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetops/internal/domain"
	"fleetops/internal/services/finance"
)

type transitionRequest struct {
	Status domain.InvoiceStatus `json:"status"`
}

// period reads from/to query parameters, defaulting to the current month.
func (s *Server) period(r *http.Request) (time.Time, time.Time, error) {
	from, to := finance.MonthRange(s.now().UTC())
	if err := query(r, "from", &from); err != nil {
		return from, to, err
	}
	if err := query(r, "to", &to); err != nil {
		return from, to, err
	}
	return from, to, nil
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.period(r)
	if err != nil {
		s.fail(w, r, "list transactions", err)
		return
	}
	var kind string
	if err := query(r, "kind", &kind); err != nil {
		s.fail(w, r, "list transactions", err)
		return
	}
	out, err := s.svc.Finance.ListTransactions(r.Context(), from, to, kind)
	if err != nil {
		s.fail(w, r, "list transactions", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in domain.Transaction
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create transaction", err)
		return
	}
	out, err := s.svc.Finance.CreateTransaction(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create transaction", err)
		return
	}
	s.created(w, out)
}

func (s *Server) financeSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.period(r)
	if err != nil {
		s.fail(w, r, "finance summary", err)
		return
	}
	out, err := s.svc.Finance.Summary(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, "finance summary", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	var status string
	if err := query(r, "status", &status); err != nil {
		s.fail(w, r, "list invoices", err)
		return
	}
	out, err := s.svc.Finance.ListInvoices(r.Context(), status)
	if err != nil {
		s.fail(w, r, "list invoices", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in domain.Invoice
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create invoice", err)
		return
	}
	out, err := s.svc.Finance.CreateInvoice(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create invoice", err)
		return
	}
	s.created(w, out)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get invoice", err)
		return
	}
	out, err := s.svc.Finance.GetInvoice(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get invoice", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) transitionInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "transition invoice", err)
		return
	}
	var in transitionRequest
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "transition invoice", err)
		return
	}
	out, err := s.svc.Finance.Transition(r.Context(), id, in.Status)
	if err != nil {
		s.fail(w, r, "transition invoice", err)
		return
	}
	s.ok(w, out)
}

// exportInvoices renders into memory first so a failure still gets an envelope.
func (s *Server) exportInvoices(w http.ResponseWriter, r *http.Request) {
	format, status := "csv", ""
	if err := query(r, "format", &format); err != nil {
		s.fail(w, r, "export invoices", err)
		return
	}
	if err := query(r, "status", &status); err != nil {
		s.fail(w, r, "export invoices", err)
		return
	}
	exp, ok := s.svc.Finance.Exporter(format)
	if !ok {
		s.fail(w, r, "export invoices", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalid, format))
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Finance.Export(r.Context(), format, status, &buf); err != nil {
		s.fail(w, r, "export invoices", err)
		return
	}
	name := fmt.Sprintf("invoices-%s.%s", s.now().UTC().Format("20060102"), strings.ToLower(exp.Format()))
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
