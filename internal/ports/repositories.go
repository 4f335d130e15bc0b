package ports

import (
	"context"
	"time"

	"fleetops/internal/domain"
)

// ComplianceRepository stores certificates and permits with expiry dates.
type ComplianceRepository interface {
	CreateComplianceDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error)
	UpdateComplianceDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error)
	DeleteComplianceDocument(ctx context.Context, id string) error
	GetComplianceDocument(ctx context.Context, id string) (domain.ComplianceDocument, error)
	ListComplianceDocuments(ctx context.Context) ([]domain.ComplianceDocument, error)
}

// AuditRepository stores audits together with their checklist items.
type AuditRepository interface {
	CreateAudit(ctx context.Context, a domain.Audit) (domain.Audit, error)
	GetAudit(ctx context.Context, id string) (domain.Audit, error)
	ListAudits(ctx context.Context) ([]domain.Audit, error)
	UpdateChecklistItem(ctx context.Context, auditID string, item domain.ChecklistItem) error
	SaveEvaluation(ctx context.Context, auditID string, ev domain.Evaluation) error
}

type RiskRepository interface {
	CreateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error)
	UpdateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error)
	DeleteRisk(ctx context.Context, id string) error
	GetRisk(ctx context.Context, id string) (domain.Risk, error)
	ListRisks(ctx context.Context) ([]domain.Risk, error)
}

type DocumentRepository interface {
	CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error)
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	ListDocuments(ctx context.Context, category string) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type DroneRepository interface {
	CreateDrone(ctx context.Context, d domain.Drone) (domain.Drone, error)
	UpdateDrone(ctx context.Context, d domain.Drone) (domain.Drone, error)
	DeleteDrone(ctx context.Context, id string) error
	GetDrone(ctx context.Context, id string) (domain.Drone, error)
	ListDrones(ctx context.Context) ([]domain.Drone, error)
	RecordTelemetry(ctx context.Context, t domain.Telemetry) error
}

type FinanceRepository interface {
	CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	ListTransactions(ctx context.Context, from, to time.Time, kind string) ([]domain.Transaction, error)
	CreateInvoice(ctx context.Context, inv domain.Invoice) (domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (domain.Invoice, error)
	ListInvoices(ctx context.Context, status string) ([]domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, inv domain.Invoice) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error)
	UpdateTask(ctx context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error)
	GetTask(ctx context.Context, id string) (domain.ScheduledTask, error)
	ListTasks(ctx context.Context, openOnly bool) ([]domain.ScheduledTask, error)
	// AssignTask claims a pending task for a technician and takes one of
	// their workload slots. A task that is no longer pending is ErrConflict.
	AssignTask(ctx context.Context, taskID, technicianID string) error
	// ReleaseTask stores t and gives technicianID's slot back, floored at 0.
	ReleaseTask(ctx context.Context, t domain.ScheduledTask, technicianID string) (domain.ScheduledTask, error)
}

type TechnicianRepository interface {
	ListTechnicians(ctx context.Context) ([]domain.Technician, error)
	UpsertTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error)
}

type AuditLogRepository interface {
	InsertAuditLog(ctx context.Context, e domain.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, f domain.AuditLogFilter) ([]domain.AuditLogEntry, error)
}
