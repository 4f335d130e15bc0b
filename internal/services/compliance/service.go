package compliance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
)

type Service struct {
	docs      ports.ComplianceRepository
	audits    ports.AuditRepository
	risks     ports.RiskRepository
	assistant ports.Assistant
	recorder  ports.AuditRecorder
	log       *zap.Logger
	warnDays  int
	now       func() time.Time
}

func New(docs ports.ComplianceRepository, audits ports.AuditRepository, risks ports.RiskRepository,
	assistant ports.Assistant, recorder ports.AuditRecorder, log *zap.Logger, warnDays int) *Service {
	if warnDays <= 0 {
		warnDays = 30
	}
	return &Service{
		docs:      docs,
		audits:    audits,
		risks:     risks,
		assistant: assistant,
		recorder:  recorder,
		log:       log,
		warnDays:  warnDays,
		now:       time.Now,
	}
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

// Compliance documents

func (s *Service) CreateDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	if d.Title == "" {
		return d, fmt.Errorf("%w: title is required", domain.ErrInvalid)
	}
	if d.IssuedAt != nil && d.ExpiresAt != nil && d.ExpiresAt.Before(*d.IssuedAt) {
		return d, fmt.Errorf("%w: expiry precedes issue date", domain.ErrInvalid)
	}
	d.DeriveStatus(s.now(), s.warnDays)
	out, err := s.docs.CreateComplianceDocument(ctx, d)
	if err != nil {
		s.log.Error("create compliance document", zap.String("title", d.Title), zap.Error(err))
		return out, err
	}
	s.record(ctx, "compliance_document.create", "compliance_document", out.ID, map[string]any{"kind": out.Kind})
	return out, nil
}

func (s *Service) UpdateDocument(ctx context.Context, d domain.ComplianceDocument) (domain.ComplianceDocument, error) {
	if d.Title == "" {
		return d, fmt.Errorf("%w: title is required", domain.ErrInvalid)
	}
	d.DeriveStatus(s.now(), s.warnDays)
	out, err := s.docs.UpdateComplianceDocument(ctx, d)
	if err != nil {
		s.log.Error("update compliance document", zap.String("id", d.ID), zap.Error(err))
		return out, err
	}
	s.record(ctx, "compliance_document.update", "compliance_document", out.ID, nil)
	return out, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := s.docs.DeleteComplianceDocument(ctx, id); err != nil {
		s.log.Error("delete compliance document", zap.String("id", id), zap.Error(err))
		return err
	}
	s.record(ctx, "compliance_document.delete", "compliance_document", id, nil)
	return nil
}

// ListDocuments returns documents with their status derived at read time.
func (s *Service) ListDocuments(ctx context.Context) ([]domain.ComplianceDocument, error) {
	docs, err := s.docs.ListComplianceDocuments(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range docs {
		docs[i].DeriveStatus(now, s.warnDays)
	}
	return docs, nil
}

// ExpiringWithin returns documents that expire in the next days days, soonest
// first. Already expired documents are included.
func (s *Service) ExpiringWithin(ctx context.Context, days int) ([]domain.ComplianceDocument, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, days)
	var out []domain.ComplianceDocument
	for _, d := range docs {
		if d.ExpiresAt != nil && d.ExpiresAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

// Audits

func (s *Service) CreateAudit(ctx context.Context, a domain.Audit) (domain.Audit, error) {
	if err := a.Normalize(); err != nil {
		return a, err
	}
	out, err := s.audits.CreateAudit(ctx, a)
	if err != nil {
		s.log.Error("create audit", zap.String("title", a.Title), zap.Error(err))
		return out, err
	}
	s.record(ctx, "audit.create", "audit", out.ID, map[string]any{"items": len(out.Items)})
	return out, nil
}

func (s *Service) GetAudit(ctx context.Context, id string) (domain.Audit, error) {
	return s.audits.GetAudit(ctx, id)
}

func (s *Service) ListAudits(ctx context.Context) ([]domain.Audit, error) {
	return s.audits.ListAudits(ctx)
}

func (s *Service) UpdateChecklistItem(ctx context.Context, auditID string, item domain.ChecklistItem) error {
	switch item.Status {
	case domain.ItemOK, domain.ItemIssue, domain.ItemNA, domain.ItemPending:
	default:
		return fmt.Errorf("%w: unknown checklist status %q", domain.ErrInvalid, item.Status)
	}
	if err := s.audits.UpdateChecklistItem(ctx, auditID, item); err != nil {
		s.log.Error("update checklist item", zap.String("audit_id", auditID), zap.String("item_id", item.ID), zap.Error(err))
		return err
	}
	s.record(ctx, "audit.item_update", "audit", auditID, map[string]any{"item": item.ID, "status": item.Status})
	return nil
}

// EvaluateAudit scores an audit through the assistant and falls back to the
// checklist percentage when the assistant fails or gives no usable score.
func (s *Service) EvaluateAudit(ctx context.Context, id string) (domain.Evaluation, error) {
	a, err := s.audits.GetAudit(ctx, id)
	if err != nil {
		return domain.Evaluation{}, err
	}
	fallback := domain.FallbackComplianceEvaluation(a.Items)
	ev := fallback

	resp, err := s.assistant.Complete(ctx, domain.AIRequest{
		Module:  "compliance",
		Action:  "evaluate_audit",
		Payload: auditPayload(a),
	})
	switch {
	case errors.Is(err, domain.ErrAssistantUnavailable):
	case err != nil:
		s.log.Warn("assistant evaluation failed, using fallback", zap.String("audit_id", id), zap.Error(err))
	default:
		if parsed, ok := ParseEvaluation(resp.Text); ok {
			parsed.Findings = fallback.Findings
			if len(parsed.Recommendations) == 0 {
				parsed.Recommendations = fallback.Recommendations
			}
			ev = parsed
		} else {
			s.log.Info("assistant response had no score", zap.String("audit_id", id))
		}
	}
	ev.EvaluatedAt = s.now().UTC()

	if err := s.audits.SaveEvaluation(ctx, id, ev); err != nil {
		s.log.Error("save evaluation", zap.String("audit_id", id), zap.Error(err))
		return ev, err
	}
	s.record(ctx, "audit.evaluate", "audit", id, map[string]any{"score": ev.Score, "source": ev.Source})
	return ev, nil
}

func auditPayload(a domain.Audit) map[string]any {
	items := make([]map[string]any, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, map[string]any{
			"section":  it.Section,
			"question": it.Question,
			"status":   it.Status,
			"notes":    it.Notes,
		})
	}
	return map[string]any{
		"title":    a.Title,
		"standard": a.Standard,
		"items":    items,
	}
}

// Risk register

func (s *Service) CreateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error) {
	if err := r.Normalize(); err != nil {
		return r, err
	}
	out, err := s.risks.CreateRisk(ctx, r)
	if err != nil {
		s.log.Error("create risk", zap.String("title", r.Title), zap.Error(err))
		return out, err
	}
	s.record(ctx, "risk.create", "risk", out.ID, map[string]any{"severity": string(out.Severity)})
	return out, nil
}

func (s *Service) UpdateRisk(ctx context.Context, r domain.Risk) (domain.Risk, error) {
	if err := r.Normalize(); err != nil {
		return r, err
	}
	out, err := s.risks.UpdateRisk(ctx, r)
	if err != nil {
		s.log.Error("update risk", zap.String("id", r.ID), zap.Error(err))
		return out, err
	}
	s.record(ctx, "risk.update", "risk", out.ID, map[string]any{"severity": string(out.Severity), "status": out.Status})
	return out, nil
}

func (s *Service) DeleteRisk(ctx context.Context, id string) error {
	if err := s.risks.DeleteRisk(ctx, id); err != nil {
		s.log.Error("delete risk", zap.String("id", id), zap.Error(err))
		return err
	}
	s.record(ctx, "risk.delete", "risk", id, nil)
	return nil
}

func (s *Service) GetRisk(ctx context.Context, id string) (domain.Risk, error) {
	return s.risks.GetRisk(ctx, id)
}

// ListRisks orders risks by severity, most severe first.
func (s *Service) ListRisks(ctx context.Context) ([]domain.Risk, error) {
	risks, err := s.risks.ListRisks(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity.Weight() > risks[j].Severity.Weight()
	})
	return risks, nil
}

func (s *Service) RiskMatrix(ctx context.Context) (domain.RiskMatrix, error) {
	risks, err := s.risks.ListRisks(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildRiskMatrix(risks), nil
}
