package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/services/compliance"
	"fleetops/internal/services/dashboard"
	"fleetops/internal/services/documents"
	"fleetops/internal/services/drones"
	"fleetops/internal/services/finance"
	"fleetops/internal/services/scheduler"
)

// ActorHeader names the caller recorded in the audit log.
const ActorHeader = "X-Actor"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Compliance *compliance.Service
	Documents  *documents.Service
	Drones     *drones.Service
	Finance    *finance.Service
	Scheduler  *scheduler.Service
	AuditLog   *auditlog.Service
	Dashboard  *dashboard.Service
}

type Server struct {
	svc Services
	db  Pinger
	log *zap.Logger
	now func() time.Time
}

func New(svc Services, db Pinger, log *zap.Logger) *Server {
	return &Server{svc: svc, db: db, log: log, now: time.Now}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(actor)

	r.Get("/healthz", s.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", s.overview)

		r.Route("/compliance", func(r chi.Router) {
			r.Get("/documents", s.listComplianceDocuments)
			r.Post("/documents", s.createComplianceDocument)
			r.Get("/documents/expiring", s.expiringDocuments)
			r.Put("/documents/{id}", s.updateComplianceDocument)
			r.Delete("/documents/{id}", s.deleteComplianceDocument)

			r.Get("/audits", s.listAudits)
			r.Post("/audits", s.createAudit)
			r.Get("/audits/{id}", s.getAudit)
			r.Put("/audits/{id}/items/{itemID}", s.updateChecklistItem)
			r.Post("/audits/{id}/evaluate", s.evaluateAudit)

			r.Get("/risks", s.listRisks)
			r.Post("/risks", s.createRisk)
			r.Get("/risks/matrix", s.riskMatrix)
			r.Get("/risks/{id}", s.getRisk)
			r.Put("/risks/{id}", s.updateRisk)
			r.Delete("/risks/{id}", s.deleteRisk)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.listDocuments)
			r.Post("/", s.uploadDocument)
			r.Get("/{id}", s.getDocument)
			r.Get("/{id}/content", s.downloadDocument)
			r.Get("/{id}/url", s.documentURL)
			r.Delete("/{id}", s.deleteDocument)
		})

		r.Route("/drones", func(r chi.Router) {
			r.Get("/", s.listDrones)
			r.Post("/", s.createDrone)
			r.Get("/status", s.fleetStatus)
			r.Post("/dispatch", s.dispatchDrone)
			r.Get("/{id}", s.getDrone)
			r.Put("/{id}", s.updateDrone)
			r.Delete("/{id}", s.deleteDrone)
			r.Post("/{id}/telemetry", s.recordTelemetry)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Get("/transactions", s.listTransactions)
			r.Post("/transactions", s.createTransaction)
			r.Get("/summary", s.financeSummary)
			r.Get("/invoices", s.listInvoices)
			r.Post("/invoices", s.createInvoice)
			r.Get("/invoices/export", s.exportInvoices)
			r.Get("/invoices/{id}", s.getInvoice)
			r.Post("/invoices/{id}/status", s.transitionInvoice)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Get("/tasks", s.listTasks)
			r.Post("/tasks", s.createTask)
			r.Get("/tasks/prioritized", s.prioritizedTasks)
			r.Get("/tasks/{id}", s.getTask)
			r.Post("/tasks/{id}/status", s.updateTaskStatus)
			r.Get("/tasks/{id}/recommendations", s.recommend)
			r.Post("/tasks/{id}/assign", s.assignTask)
			r.Get("/jobs/{id}", s.jobStatus)
			r.Get("/plan", s.plan)
			r.Post("/breakdown", s.breakdown)
			r.Get("/technicians", s.listTechnicians)
			r.Post("/technicians", s.upsertTechnician)
		})

		r.Get("/audit-log", s.listAuditLog)
	})
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a := r.Header.Get(ActorHeader); a != "" {
			r = r.WithContext(auditlog.WithActor(r.Context(), a))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Error: "database unavailable"})
			return
		}
	}
	s.ok(w, map[string]string{"status": "ok"})
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Dashboard.Overview(r.Context())
	if err != nil {
		s.fail(w, r, "dashboard overview", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) listAuditLog(w http.ResponseWriter, r *http.Request) {
	var f domain.AuditLogFilter
	for name, dst := range map[string]*string{
		"actor": &f.Actor, "action": &f.Action, "resource_type": &f.ResourceType, "resource_id": &f.ResourceID,
	} {
		if err := query(r, name, dst); err != nil {
			s.fail(w, r, "list audit log", err)
			return
		}
	}
	if err := query(r, "limit", &f.Limit); err != nil {
		s.fail(w, r, "list audit log", err)
		return
	}
	out, err := s.svc.AuditLog.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, "list audit log", err)
		return
	}
	s.ok(w, out)
}
