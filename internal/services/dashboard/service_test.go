package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/services/compliance"
	"fleetops/internal/services/drones"
	"fleetops/internal/services/finance"
	"fleetops/internal/services/scheduler"
	"fleetops/internal/testutil"
)

func build(mem *testutil.Memory) *Service {
	log := zap.NewNop()
	rec := auditlog.New(mem, log)
	ai := &testutil.Assistant{Err: domain.ErrAssistantUnavailable}
	return New(
		compliance.New(mem, mem, mem, ai, rec, log, 30),
		drones.New(mem, rec, log),
		finance.New(mem, rec, log),
		scheduler.New(mem, mem, mem, ai, rec, log, scheduler.DefaultRules()),
		log, 30,
	)
}

func TestOverview(t *testing.T) {
	mem := testutil.NewMemory()
	svc := build(mem)
	ctx := context.Background()
	now := time.Now()

	mem.Audits["a1"] = domain.Audit{ID: "a1", Evaluation: &domain.Evaluation{Score: 80}}
	mem.Audits["a2"] = domain.Audit{ID: "a2", Evaluation: &domain.Evaluation{Score: 100}}
	mem.Audits["a3"] = domain.Audit{ID: "a3"}
	soon := now.AddDate(0, 0, 3)
	mem.ComplianceDocs["c1"] = domain.ComplianceDocument{ID: "c1", Title: "ISSC", ExpiresAt: &soon}
	mem.Risks["r1"] = domain.Risk{ID: "r1", Severity: domain.SeverityHigh, Status: domain.RiskOpen}
	mem.Drones["d1"] = domain.Drone{ID: "d1", Status: domain.DroneIdle, Battery: 80}
	mem.Transactions = append(mem.Transactions, domain.Transaction{Kind: domain.TxIncome, Amount: 1000, OccurredAt: now})
	mem.Invoices["i1"] = domain.Invoice{ID: "i1", Status: domain.InvoiceSent, Total: 5000, DueAt: now.AddDate(0, 0, 5)}
	for i := 0; i < UpcomingLimit+2; i++ {
		id := string(rune('a'+i)) + "-task"
		mem.Tasks[id] = domain.ScheduledTask{ID: id, Title: id, Severity: domain.SeverityMedium, Status: domain.TaskPending}
	}

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90.0, ov.ComplianceScore)
	assert.Equal(t, domain.LevelExcellent, ov.ComplianceLevel)
	assert.Len(t, ov.ExpiringDocuments, 1)
	assert.Equal(t, 1, ov.RiskMatrix[domain.SeverityHigh])
	assert.Equal(t, 1, ov.Fleet.Total)
	assert.Equal(t, domain.Cents(1000), ov.Finance.Income)
	assert.Equal(t, domain.Cents(5000), ov.OutstandingAmount)
	assert.Equal(t, 1, ov.OutstandingCount)
	assert.Len(t, ov.UpcomingTasks, UpcomingLimit)
}

func TestOverviewPropagatesPanelError(t *testing.T) {
	mem := testutil.NewMemory()
	mem.Fail["ListDrones"] = errors.New("replica lag")
	_, err := build(mem).Overview(context.Background())
	assert.EqualError(t, err, "replica lag")
}
