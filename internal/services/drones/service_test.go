package drones

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/testutil"
)

func setup(t *testing.T, drones ...domain.Drone) (*Service, *testutil.Memory, []domain.Drone) {
	t.Helper()
	mem := testutil.NewMemory()
	svc := New(mem, auditlog.New(mem, zap.NewNop()), zap.NewNop())
	var out []domain.Drone
	for _, d := range drones {
		created, err := svc.Create(context.Background(), d)
		require.NoError(t, err)
		out = append(out, created)
	}
	return svc, mem, out
}

func TestDispatchNearest(t *testing.T) {
	port := domain.Position{Lat: 53.55, Lon: 9.99}
	svc, mem, ds := setup(t,
		domain.Drone{Name: "far", Battery: 90, Position: domain.Position{Lat: 54.3, Lon: 10.1}},
		domain.Drone{Name: "near-low", Battery: 20, Position: domain.Position{Lat: 53.56, Lon: 9.98}},
		domain.Drone{Name: "near", Battery: 70, Position: domain.Position{Lat: 53.6, Lon: 10.0}},
		domain.Drone{Name: "busy", Battery: 100, Status: domain.DroneInMission, Position: port},
	)

	got, err := svc.DispatchNearest(context.Background(), port, 50)
	require.NoError(t, err)
	assert.Equal(t, ds[2].ID, got.Drone.ID)
	assert.Equal(t, domain.DroneInMission, mem.Drones[ds[2].ID].Status)
	assert.InDelta(t, 5.6, got.DistanceKm, 0.5)

	_, err = svc.DispatchNearest(context.Background(), port, 95)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecordTelemetry(t *testing.T) {
	svc, mem, ds := setup(t, domain.Drone{Name: "Skua", Battery: 60, Status: domain.DroneOffline})

	d, err := svc.RecordTelemetry(context.Background(), domain.Telemetry{
		DroneID:  ds[0].ID,
		Battery:  12,
		Position: domain.Position{Lat: 60.1, Lon: 5.2},
		Altitude: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DroneCharging, d.Status)
	assert.NotNil(t, d.LastSeenAt)
	assert.Len(t, mem.Telemetry, 1)

	_, err = svc.RecordTelemetry(context.Background(), domain.Telemetry{DroneID: ds[0].ID, Position: domain.Position{Lat: 91}})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.RecordTelemetry(context.Background(), domain.Telemetry{DroneID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFleetStatus(t *testing.T) {
	svc, _, ds := setup(t,
		domain.Drone{Name: "a", Battery: 10, Status: domain.DroneCharging},
		domain.Drone{Name: "b", Battery: 90},
		domain.Drone{Name: "c", Battery: 50, Status: domain.DroneMaintenance},
	)
	fs, err := svc.FleetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fs.Total)
	assert.Equal(t, 1, fs.ByStatus[domain.DroneIdle])
	assert.InDelta(t, 50, fs.AverageBattery, 0.001)
	assert.Equal(t, []string{ds[0].ID}, fs.LowBattery)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Create(context.Background(), domain.Drone{})
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, err = svc.Create(context.Background(), domain.Drone{Name: "x", Status: "flying"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestChargedDroneReturnsToDispatch(t *testing.T) {
	pad := domain.Position{Lat: 57.7, Lon: 11.9}
	svc, _, ds := setup(t, domain.Drone{Name: "Fulmar", Battery: 8, Status: domain.DroneCharging, Position: pad})

	_, err := svc.DispatchNearest(context.Background(), pad, 50)
	require.ErrorIs(t, err, domain.ErrConflict)

	d, err := svc.RecordTelemetry(context.Background(), domain.Telemetry{DroneID: ds[0].ID, Battery: 100, Position: pad})
	require.NoError(t, err)
	assert.Equal(t, domain.DroneIdle, d.Status)

	got, err := svc.DispatchNearest(context.Background(), pad, 50)
	require.NoError(t, err)
	assert.Equal(t, ds[0].ID, got.Drone.ID)
}
