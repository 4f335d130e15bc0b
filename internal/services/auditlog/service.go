package auditlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Service struct {
	repo ports.AuditLogRepository
	log  *zap.Logger
	now  func() time.Time
}

func New(repo ports.AuditLogRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Record stores an entry. Failures are logged and swallowed so a broken audit
// trail never blocks the mutation that produced it.
func (s *Service) Record(ctx context.Context, e domain.AuditLogEntry) {
	if e.Actor == "" {
		e.Actor = "system"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if err := s.repo.InsertAuditLog(ctx, e); err != nil {
		s.log.Warn("audit log insert failed",
			zap.String("action", e.Action),
			zap.String("resource_type", e.ResourceType),
			zap.String("resource_id", e.ResourceID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, f domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return s.repo.ListAuditLogs(ctx, f)
}

// Actor context plumbing so services can attribute entries without threading
// the caller through every signature.
type actorKey struct{}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return "system"
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, domain.AuditLogEntry) {}
