// Package testutil provides in-memory implementations of the ports for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
)

// Memory implements every repository port on maps guarded by one mutex.
type Memory struct {
	mu  sync.Mutex
	seq int
	Now func() time.Time

	ComplianceDocs map[string]domain.ComplianceDocument
	Audits         map[string]domain.Audit
	Risks          map[string]domain.Risk
	Documents      map[string]domain.Document
	Drones         map[string]domain.Drone
	Telemetry      []domain.Telemetry
	Transactions   []domain.Transaction
	Invoices       map[string]domain.Invoice
	Tasks          map[string]domain.ScheduledTask
	Technicians    map[string]domain.Technician
	AuditLogs      []domain.AuditLogEntry
	Jobs           map[string]*MemJob
	jobOrder       []string

	// Fail makes the named method return the error once set.
	Fail map[string]error
}

type MemJob struct {
	ID     string
	TaskID string
	Status string
	Reason string
}

func NewMemory() *Memory {
	return &Memory{
		Now:            time.Now,
		ComplianceDocs: map[string]domain.ComplianceDocument{},
		Audits:         map[string]domain.Audit{},
		Risks:          map[string]domain.Risk{},
		Documents:      map[string]domain.Document{},
		Drones:         map[string]domain.Drone{},
		Invoices:       map[string]domain.Invoice{},
		Tasks:          map[string]domain.ScheduledTask{},
		Technicians:    map[string]domain.Technician{},
		Jobs:           map[string]*MemJob{},
		Fail:           map[string]error{},
	}
}

var (
	_ ports.ComplianceRepository = (*Memory)(nil)
	_ ports.AuditRepository      = (*Memory)(nil)
	_ ports.RiskRepository       = (*Memory)(nil)
	_ ports.DocumentRepository   = (*Memory)(nil)
	_ ports.DroneRepository      = (*Memory)(nil)
	_ ports.FinanceRepository    = (*Memory)(nil)
	_ ports.TaskRepository       = (*Memory)(nil)
	_ ports.TechnicianRepository = (*Memory)(nil)
	_ ports.AuditLogRepository   = (*Memory)(nil)
	_ ports.JobRepository        = (*Memory)(nil)
)

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *Memory) fail(op string) error { return m.Fail[op] }

// Compliance documents

func (m *Memory) CreateComplianceDocument(_ context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateComplianceDocument"); err != nil {
		return d, err
	}
	d.ID = m.nextID("cdoc")
	d.CreatedAt = m.Now()
	m.ComplianceDocs[d.ID] = d
	return d, nil
}

func (m *Memory) UpdateComplianceDocument(_ context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.ComplianceDocs[d.ID]
	if !ok {
		return d, domain.ErrNotFound
	}
	d.CreatedAt = old.CreatedAt
	m.ComplianceDocs[d.ID] = d
	return d, nil
}

func (m *Memory) DeleteComplianceDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ComplianceDocs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.ComplianceDocs, id)
	return nil
}

func (m *Memory) GetComplianceDocument(_ context.Context, id string) (domain.ComplianceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.ComplianceDocs[id]
	if !ok {
		return d, domain.ErrNotFound
	}
	return d, nil
}

func (m *Memory) ListComplianceDocuments(_ context.Context) ([]domain.ComplianceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListComplianceDocuments"); err != nil {
		return nil, err
	}
	out := make([]domain.ComplianceDocument, 0, len(m.ComplianceDocs))
	for _, d := range m.ComplianceDocs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Audits

func (m *Memory) CreateAudit(_ context.Context, a domain.Audit) (domain.Audit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID("audit")
	a.CreatedAt = m.Now()
	items := make([]domain.ChecklistItem, len(a.Items))
	for i, it := range a.Items {
		it.ID = m.nextID("item")
		items[i] = it
	}
	a.Items = items
	m.Audits[a.ID] = a
	return a, nil
}

func (m *Memory) GetAudit(_ context.Context, id string) (domain.Audit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Audits[id]
	if !ok {
		return a, domain.ErrNotFound
	}
	a.Items = append([]domain.ChecklistItem(nil), a.Items...)
	return a, nil
}

func (m *Memory) ListAudits(_ context.Context) ([]domain.Audit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Audit, 0, len(m.Audits))
	for _, a := range m.Audits {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateChecklistItem(_ context.Context, auditID string, item domain.ChecklistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Audits[auditID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range a.Items {
		if a.Items[i].ID == item.ID {
			a.Items[i].Status = item.Status
			a.Items[i].Notes = item.Notes
			if a.Status == domain.AuditPlanned {
				a.Status = domain.AuditInProgress
			}
			m.Audits[auditID] = a
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *Memory) SaveEvaluation(_ context.Context, auditID string, ev domain.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveEvaluation"); err != nil {
		return err
	}
	a, ok := m.Audits[auditID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Evaluation = &ev
	a.Status = domain.AuditCompleted
	t := ev.EvaluatedAt
	a.CompletedAt = &t
	m.Audits[auditID] = a
	return nil
}

// Risks

func (m *Memory) CreateRisk(_ context.Context, r domain.Risk) (domain.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateRisk"); err != nil {
		return r, err
	}
	r.ID = m.nextID("risk")
	r.CreatedAt = m.Now()
	r.UpdatedAt = r.CreatedAt
	m.Risks[r.ID] = r
	return r, nil
}

func (m *Memory) UpdateRisk(_ context.Context, r domain.Risk) (domain.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Risks[r.ID]
	if !ok {
		return r, domain.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = m.Now()
	m.Risks[r.ID] = r
	return r, nil
}

func (m *Memory) DeleteRisk(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Risks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.Risks, id)
	return nil
}

func (m *Memory) GetRisk(_ context.Context, id string) (domain.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Risks[id]
	if !ok {
		return r, domain.ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRisks(_ context.Context) ([]domain.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListRisks"); err != nil {
		return nil, err
	}
	out := make([]domain.Risk, 0, len(m.Risks))
	for _, r := range m.Risks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Documents

func (m *Memory) CreateDocument(_ context.Context, d domain.Document) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateDocument"); err != nil {
		return d, err
	}
	d.ID = m.nextID("doc")
	d.CreatedAt = m.Now()
	m.Documents[d.ID] = d
	return d, nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Documents[id]
	if !ok {
		return d, domain.ErrNotFound
	}
	return d, nil
}

func (m *Memory) ListDocuments(_ context.Context, category string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.Documents {
		if category == "" || d.Category == category {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.Documents, id)
	return nil
}

// Drones

func (m *Memory) CreateDrone(_ context.Context, d domain.Drone) (domain.Drone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID("drone")
	d.CreatedAt = m.Now()
	m.Drones[d.ID] = d
	return d, nil
}

func (m *Memory) UpdateDrone(_ context.Context, d domain.Drone) (domain.Drone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Drones[d.ID]
	if !ok {
		return d, domain.ErrNotFound
	}
	d.CreatedAt = old.CreatedAt
	m.Drones[d.ID] = d
	return d, nil
}

func (m *Memory) DeleteDrone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Drones[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.Drones, id)
	return nil
}

func (m *Memory) GetDrone(_ context.Context, id string) (domain.Drone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Drones[id]
	if !ok {
		return d, domain.ErrNotFound
	}
	return d, nil
}

func (m *Memory) ListDrones(_ context.Context) ([]domain.Drone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListDrones"); err != nil {
		return nil, err
	}
	out := make([]domain.Drone, 0, len(m.Drones))
	for _, d := range m.Drones {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) RecordTelemetry(_ context.Context, t domain.Telemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Telemetry = append(m.Telemetry, t)
	return nil
}

// Finance

func (m *Memory) CreateTransaction(_ context.Context, t domain.Transaction) (domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("tx")
	t.CreatedAt = m.Now()
	m.Transactions = append(m.Transactions, t)
	return t, nil
}

func (m *Memory) ListTransactions(_ context.Context, from, to time.Time, kind string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListTransactions"); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for _, t := range m.Transactions {
		if t.OccurredAt.Before(from) || !t.OccurredAt.Before(to) {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) CreateInvoice(_ context.Context, inv domain.Invoice) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = m.nextID("inv")
	inv.CreatedAt = m.Now()
	m.Invoices[inv.ID] = inv
	return inv, nil
}

func (m *Memory) GetInvoice(_ context.Context, id string) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.Invoices[id]
	if !ok {
		return inv, domain.ErrNotFound
	}
	return inv, nil
}

func (m *Memory) ListInvoices(_ context.Context, status string) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range m.Invoices {
		if status == "" || string(inv.Status) == status {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateInvoiceStatus(_ context.Context, inv domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	old.Status = inv.Status
	old.PaidAt = inv.PaidAt
	m.Invoices[inv.ID] = old
	return nil
}

// Tasks and technicians

func (m *Memory) CreateTask(_ context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("task")
	t.CreatedAt = m.Now()
	m.Tasks[t.ID] = t
	return t, nil
}

func (m *Memory) UpdateTask(_ context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Tasks[t.ID]
	if !ok {
		return t, domain.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	m.Tasks[t.ID] = t
	return t, nil
}

func (m *Memory) GetTask(_ context.Context, id string) (domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tasks[id]
	if !ok {
		return t, domain.ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTasks(_ context.Context, openOnly bool) ([]domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListTasks"); err != nil {
		return nil, err
	}
	var out []domain.ScheduledTask
	for _, t := range m.Tasks {
		if openOnly && !t.Status.Open() {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AssignTask(_ context.Context, taskID, technicianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != domain.TaskPending {
		return fmt.Errorf("assign task %s: %w: task is not pending", taskID, domain.ErrConflict)
	}
	tech, ok := m.Technicians[technicianID]
	if !ok {
		return domain.ErrNotFound
	}
	t.AssigneeRef = &technicianID
	t.Status = domain.TaskAssigned
	m.Tasks[taskID] = t
	tech.ActiveTasks++
	m.Technicians[technicianID] = tech
	return nil
}

func (m *Memory) ReleaseTask(_ context.Context, t domain.ScheduledTask, technicianID string) (domain.ScheduledTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Tasks[t.ID]
	if !ok {
		return t, domain.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	m.Tasks[t.ID] = t
	if tech, ok := m.Technicians[technicianID]; ok && tech.ActiveTasks > 0 {
		tech.ActiveTasks--
		m.Technicians[technicianID] = tech
	}
	return t, nil
}

func (m *Memory) ListTechnicians(_ context.Context) ([]domain.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Technician, 0, len(m.Technicians))
	for _, t := range m.Technicians {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertTechnician(_ context.Context, t domain.Technician) (domain.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = m.nextID("tech")
	}
	m.Technicians[t.ID] = t
	return t, nil
}

// Audit log

func (m *Memory) InsertAuditLog(_ context.Context, e domain.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID("log")
	m.AuditLogs = append(m.AuditLogs, e)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, f domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditLogEntry
	for i := len(m.AuditLogs) - 1; i >= 0; i-- {
		e := m.AuditLogs[i]
		if (f.Actor != "" && e.Actor != f.Actor) ||
			(f.Action != "" && e.Action != f.Action) ||
			(f.ResourceType != "" && e.ResourceType != f.ResourceType) ||
			(f.ResourceID != "" && e.ResourceID != f.ResourceID) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Assignment jobs

func (m *Memory) EnqueueAssignment(_ context.Context, taskID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("job")
	m.Jobs[id] = &MemJob{ID: id, TaskID: taskID, Status: "queued"}
	m.jobOrder = append(m.jobOrder, id)
	return id, nil
}

func (m *Memory) ClaimNext(_ context.Context) (ports.AssignmentJob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.jobOrder {
		j := m.Jobs[id]
		if j.Status == "queued" {
			j.Status = "running"
			return ports.AssignmentJob{ID: j.ID, TaskID: j.TaskID}, true, nil
		}
	}
	return ports.AssignmentJob{}, false, nil
}

func (m *Memory) MarkCompleted(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.Jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = "completed"
	return nil
}

func (m *Memory) MarkFailed(_ context.Context, jobID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.Jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = "failed"
	j.Reason = reason
	return nil
}

func (m *Memory) JobStatus(_ context.Context, jobID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.Jobs[jobID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return j.Status, nil
}

// JobSnapshot returns a copy of a job for assertions.
func (m *Memory) JobSnapshot(jobID string) MemJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.Jobs[jobID]; ok {
		return *j
	}
	return MemJob{}
}

// Objects is an in-memory ports.ObjectStore.
type Objects struct {
	mu       sync.Mutex
	Data     map[string][]byte
	Types    map[string]string
	Seekable map[string]bool // whether Put received an io.ReadSeeker
	PutErr   error
}

func NewObjects() *Objects {
	return &Objects{Data: map[string][]byte{}, Types: map[string]string{}, Seekable: map[string]bool{}}
}

func (o *Objects) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if o.PutErr != nil {
		return o.PutErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, seekable := body.(io.ReadSeeker)
	o.Data[key] = b
	o.Types[key] = contentType
	o.Seekable[key] = seekable
	return nil
}

func (o *Objects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.Data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.Data, key)
	delete(o.Types, key)
	delete(o.Seekable, key)
	return nil
}

func (o *Objects) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

// Assistant returns a canned reply and remembers the last request.
type Assistant struct {
	mu    sync.Mutex
	Reply string
	Err   error
	Last  domain.AIRequest
	Calls int
}

func (a *Assistant) Complete(_ context.Context, req domain.AIRequest) (domain.AIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Last = req
	a.Calls++
	if a.Err != nil {
		return domain.AIResponse{}, a.Err
	}
	return domain.AIResponse{Text: a.Reply, Kind: domain.KindForAction(req.Action)}, nil
}
