package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fleetops/internal/domain"
	"fleetops/internal/services/compliance"
	"fleetops/internal/services/drones"
	"fleetops/internal/services/finance"
	"fleetops/internal/services/scheduler"
)

// UpcomingLimit caps the number of prioritized tasks in an overview.
const UpcomingLimit = 10

type Overview struct {
	GeneratedAt       time.Time                   `json:"generated_at"`
	ComplianceScore   float64                     `json:"compliance_score"`
	ComplianceLevel   domain.Level                `json:"compliance_level"`
	ExpiringDocuments []domain.ComplianceDocument `json:"expiring_documents,omitempty"`
	RiskMatrix        domain.RiskMatrix           `json:"risk_matrix"`
	Fleet             domain.FleetStatus          `json:"fleet"`
	Finance           domain.FinanceSummary       `json:"finance"`
	OutstandingAmount domain.Cents                `json:"outstanding_amount"`
	OutstandingCount  int                         `json:"outstanding_count"`
	UpcomingTasks     []scheduler.PrioritizedTask `json:"upcoming_tasks,omitempty"`
}

type Service struct {
	compliance *compliance.Service
	drones     *drones.Service
	finance    *finance.Service
	scheduler  *scheduler.Service
	log        *zap.Logger
	warnDays   int
	now        func() time.Time
}

func New(c *compliance.Service, d *drones.Service, f *finance.Service, s *scheduler.Service, log *zap.Logger, warnDays int) *Service {
	return &Service{compliance: c, drones: d, finance: f, scheduler: s, log: log, warnDays: warnDays, now: time.Now}
}

// Overview loads every panel concurrently. The first failing panel cancels
// the rest and its error is returned.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now()
	ov := Overview{GeneratedAt: now.UTC()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		audits, err := s.compliance.ListAudits(ctx)
		if err != nil {
			return err
		}
		var sum float64
		var n int
		for _, a := range audits {
			if a.Evaluation != nil {
				sum += a.Evaluation.Score
				n++
			}
		}
		if n > 0 {
			ov.ComplianceScore = sum / float64(n)
		}
		ov.ComplianceLevel = domain.ComplianceLevel(ov.ComplianceScore)
		return nil
	})
	g.Go(func() error {
		docs, err := s.compliance.ExpiringWithin(ctx, s.warnDays)
		ov.ExpiringDocuments = docs
		return err
	})
	g.Go(func() error {
		m, err := s.compliance.RiskMatrix(ctx)
		ov.RiskMatrix = m
		return err
	})
	g.Go(func() error {
		fs, err := s.drones.FleetStatus(ctx)
		ov.Fleet = fs
		return err
	})
	g.Go(func() error {
		from, to := finance.MonthRange(now)
		sum, err := s.finance.Summary(ctx, from, to)
		ov.Finance = sum
		return err
	})
	g.Go(func() error {
		amount, count, err := s.finance.Outstanding(ctx)
		ov.OutstandingAmount, ov.OutstandingCount = amount, count
		return err
	})
	g.Go(func() error {
		tasks, err := s.scheduler.Prioritized(ctx)
		if len(tasks) > UpcomingLimit {
			tasks = tasks[:UpcomingLimit]
		}
		ov.UpcomingTasks = tasks
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("dashboard overview", zap.Error(err))
		return Overview{}, err
	}
	return ov, nil
}
