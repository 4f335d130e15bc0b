package compliance

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
	"fleetops/internal/testutil"
)

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, assistant *testutil.Assistant) (*Service, *testutil.Memory) {
	t.Helper()
	mem := testutil.NewMemory()
	mem.Now = func() time.Time { return fixedNow }
	rec := auditlog.New(mem, zap.NewNop())
	svc := New(mem, mem, mem, assistant, rec, zap.NewNop(), 30)
	svc.now = func() time.Time { return fixedNow }
	return svc, mem
}

func seedAudit(t *testing.T, svc *Service) domain.Audit {
	t.Helper()
	a, err := svc.CreateAudit(context.Background(), domain.Audit{
		Title:    "ISM annual",
		Standard: "ISM",
		Items: []domain.ChecklistItem{
			{Question: "SMS manual on board", Status: domain.ItemOK},
			{Question: "Drill records", Status: domain.ItemOK},
			{Question: "Oil record book", Status: domain.ItemIssue},
			{Question: "Garbage plan", Status: domain.ItemOK},
		},
	})
	require.NoError(t, err)
	return a
}

func TestEvaluateAuditUsesAssistantScore(t *testing.T) {
	ai := &testutil.Assistant{Reply: "Compliance score: 82\n- Update the oil record book\n- Retrain crew on MARPOL Annex I"}
	svc, mem := newService(t, ai)
	a := seedAudit(t, svc)

	ev, err := svc.EvaluateAudit(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(82), ev.Score)
	assert.Equal(t, domain.LevelGood, ev.Level)
	assert.Equal(t, "ai", ev.Source)
	assert.Equal(t, []string{"Oil record book"}, ev.Findings)
	assert.Len(t, ev.Recommendations, 2)

	assert.Equal(t, "compliance", ai.Last.Module)
	assert.Equal(t, "evaluate_audit", ai.Last.Action)

	stored := mem.Audits[a.ID]
	require.NotNil(t, stored.Evaluation)
	assert.Equal(t, domain.AuditCompleted, stored.Status)
}

func TestEvaluateAuditFallsBack(t *testing.T) {
	cases := map[string]*testutil.Assistant{
		"gateway error": {Err: errors.New("gateway timeout")},
		"unavailable":   {Err: domain.ErrAssistantUnavailable},
		"no score":      {Reply: "The vessel looks broadly fine."},
		"out of range":  {Reply: "score: 340"},
	}
	for name, ai := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newService(t, ai)
			a := seedAudit(t, svc)

			ev, err := svc.EvaluateAudit(context.Background(), a.ID)
			require.NoError(t, err)
			assert.Equal(t, float64(75), ev.Score)
			assert.Equal(t, "fallback", ev.Source)
			assert.Equal(t, fixedNow, ev.EvaluatedAt)
		})
	}
}

func TestEvaluateAuditMissing(t *testing.T) {
	svc, _ := newService(t, &testutil.Assistant{})
	_, err := svc.EvaluateAudit(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRiskLifecycle(t *testing.T) {
	svc, mem := newService(t, &testutil.Assistant{})
	ctx := auditlog.WithActor(context.Background(), "dpa@fleet")

	low, err := svc.CreateRisk(ctx, domain.Risk{Title: "Paint peeling", Likelihood: 2, Impact: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityLow, low.Severity)

	high, err := svc.CreateRisk(ctx, domain.Risk{Title: "Steering gear failure", Likelihood: 3, Impact: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityHigh, high.Severity)

	high.Likelihood = 5
	high, err = svc.UpdateRisk(ctx, high)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityCritical, high.Severity)

	_, err = svc.CreateRisk(ctx, domain.Risk{Title: "bad", Likelihood: 9, Impact: 1})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	risks, err := svc.ListRisks(ctx)
	require.NoError(t, err)
	require.Len(t, risks, 2)
	assert.Equal(t, high.ID, risks[0].ID)

	matrix, err := svc.RiskMatrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, matrix[domain.SeverityCritical])
	assert.Equal(t, 1, matrix[domain.SeverityLow])

	require.NoError(t, svc.DeleteRisk(ctx, low.ID))
	assert.ErrorIs(t, svc.DeleteRisk(ctx, low.ID), domain.ErrNotFound)

	require.Len(t, mem.AuditLogs, 4)
	assert.Equal(t, "dpa@fleet", mem.AuditLogs[0].Actor)
	assert.Equal(t, "risk.delete", mem.AuditLogs[3].Action)
}

func TestExpiringWithin(t *testing.T) {
	svc, _ := newService(t, &testutil.Assistant{})
	ctx := context.Background()
	at := func(days int) *time.Time { v := fixedNow.AddDate(0, 0, days); return &v }

	for title, exp := range map[string]*time.Time{
		"Safety Management Certificate": at(20),
		"IOPP":                          at(5),
		"Load Line":                     at(400),
		"ISSC":                          at(-2),
		"Crew policy":                   nil,
	} {
		_, err := svc.CreateDocument(ctx, domain.ComplianceDocument{Title: title, Kind: "certificate", ExpiresAt: exp})
		require.NoError(t, err)
	}

	docs, err := svc.ExpiringWithin(ctx, 30)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "ISSC", docs[0].Title)
	assert.Equal(t, "expired", docs[0].Status)
	assert.Equal(t, "IOPP", docs[1].Title)
	assert.Equal(t, "expiring", docs[1].Status)
}

func TestCreateDocumentRejectsInvertedDates(t *testing.T) {
	svc, _ := newService(t, &testutil.Assistant{})
	issued := fixedNow
	expires := fixedNow.AddDate(0, 0, -1)
	_, err := svc.CreateDocument(context.Background(), domain.ComplianceDocument{Title: "x", IssuedAt: &issued, ExpiresAt: &expires})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestUpdateChecklistItemValidatesStatus(t *testing.T) {
	svc, mem := newService(t, &testutil.Assistant{})
	a := seedAudit(t, svc)
	item := a.Items[2]

	item.Status = "maybe"
	assert.ErrorIs(t, svc.UpdateChecklistItem(context.Background(), a.ID, item), domain.ErrInvalid)

	item.Status = domain.ItemOK
	require.NoError(t, svc.UpdateChecklistItem(context.Background(), a.ID, item))
	assert.Equal(t, domain.ItemOK, mem.Audits[a.ID].Items[2].Status)
	assert.Equal(t, domain.AuditInProgress, mem.Audits[a.ID].Status)
}
