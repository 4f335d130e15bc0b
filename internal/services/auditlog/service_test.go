package auditlog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fleetops/internal/domain"
)

type fakeRepo struct {
	entries []domain.AuditLogEntry
	filter  domain.AuditLogFilter
	err     error
}

func (f *fakeRepo) InsertAuditLog(_ context.Context, e domain.AuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) ListAuditLogs(_ context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	f.filter = filter
	return f.entries, nil
}

func TestRecordDefaults(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, zap.NewNop())
	svc.Record(context.Background(), domain.AuditLogEntry{Action: "risk.create", ResourceType: "risk", ResourceID: "r1"})

	require.Len(t, repo.entries, 1)
	assert.Equal(t, "system", repo.entries[0].Actor)
	assert.False(t, repo.entries[0].CreatedAt.IsZero())
}

func TestRecordSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := New(&fakeRepo{err: errors.New("db down")}, zap.New(core))

	svc.Record(context.Background(), domain.AuditLogEntry{Action: "drone.delete"})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "audit log insert failed", logs.All()[0].Message)
}

func TestListClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, zap.NewNop())

	_, err := svc.List(context.Background(), domain.AuditLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultLimit, repo.filter.Limit)

	_, err = svc.List(context.Background(), domain.AuditLogFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, repo.filter.Limit)
}

func TestActorContext(t *testing.T) {
	assert.Equal(t, "system", ActorFrom(context.Background()))
	assert.Equal(t, "captain.h", ActorFrom(WithActor(context.Background(), "captain.h")))
}
