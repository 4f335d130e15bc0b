package drones

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
)

type Service struct {
	repo     ports.DroneRepository
	recorder ports.AuditRecorder
	log      *zap.Logger
	now      func() time.Time
}

func New(repo ports.DroneRepository, recorder ports.AuditRecorder, log *zap.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, log: log, now: time.Now}
}

func (s *Service) record(ctx context.Context, action, id string, meta map[string]any) {
	s.recorder.Record(ctx, domain.AuditLogEntry{
		Actor:        auditlog.ActorFrom(ctx),
		Action:       action,
		ResourceType: "drone",
		ResourceID:   id,
		Metadata:     meta,
	})
}

func (s *Service) Create(ctx context.Context, d domain.Drone) (domain.Drone, error) {
	if err := d.Normalize(); err != nil {
		return d, err
	}
	out, err := s.repo.CreateDrone(ctx, d)
	if err != nil {
		s.log.Error("create drone", zap.String("name", d.Name), zap.Error(err))
		return out, err
	}
	s.record(ctx, "drone.create", out.ID, map[string]any{"model": out.Model})
	return out, nil
}

func (s *Service) Update(ctx context.Context, d domain.Drone) (domain.Drone, error) {
	if err := d.Normalize(); err != nil {
		return d, err
	}
	out, err := s.repo.UpdateDrone(ctx, d)
	if err != nil {
		s.log.Error("update drone", zap.String("id", d.ID), zap.Error(err))
		return out, err
	}
	s.record(ctx, "drone.update", out.ID, map[string]any{"status": string(out.Status)})
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteDrone(ctx, id); err != nil {
		s.log.Error("delete drone", zap.String("id", id), zap.Error(err))
		return err
	}
	s.record(ctx, "drone.delete", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Drone, error) {
	return s.repo.GetDrone(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Drone, error) {
	return s.repo.ListDrones(ctx)
}

// RecordTelemetry stores the sample and folds it into the drone's current state.
func (s *Service) RecordTelemetry(ctx context.Context, t domain.Telemetry) (domain.Drone, error) {
	if math.Abs(t.Position.Lat) > 90 || math.Abs(t.Position.Lon) > 180 {
		return domain.Drone{}, fmt.Errorf("%w: position out of range", domain.ErrInvalid)
	}
	d, err := s.repo.GetDrone(ctx, t.DroneID)
	if err != nil {
		return d, err
	}
	if t.RecordedAt.IsZero() {
		t.RecordedAt = s.now().UTC()
	}
	prev := d.Status
	d.Apply(t)
	if err := s.repo.RecordTelemetry(ctx, t); err != nil {
		s.log.Error("record telemetry", zap.String("drone_id", t.DroneID), zap.Error(err))
		return d, err
	}
	out, err := s.repo.UpdateDrone(ctx, d)
	if err != nil {
		return out, err
	}
	if prev != out.Status {
		s.log.Info("drone status changed",
			zap.String("drone_id", out.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(out.Status)),
			zap.Float64("battery", out.Battery))
	}
	return out, nil
}

func (s *Service) FleetStatus(ctx context.Context) (domain.FleetStatus, error) {
	ds, err := s.repo.ListDrones(ctx)
	if err != nil {
		return domain.FleetStatus{}, err
	}
	return domain.SummarizeFleet(ds), nil
}

type Dispatch struct {
	Drone      domain.Drone `json:"drone"`
	DistanceKm float64      `json:"distance_km"`
}

// DispatchNearest sends the closest idle drone with at least minBattery
// percent charge to target and marks it in mission.
func (s *Service) DispatchNearest(ctx context.Context, target domain.Position, minBattery float64) (Dispatch, error) {
	ds, err := s.repo.ListDrones(ctx)
	if err != nil {
		return Dispatch{}, err
	}
	best := -1
	bestDist := math.Inf(1)
	for i, d := range ds {
		if d.Status != domain.DroneIdle || d.Battery < minBattery {
			continue
		}
		dist := domain.HaversineKm(d.Position, target)
		if dist < bestDist || (dist == bestDist && d.Battery > ds[best].Battery) {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return Dispatch{}, fmt.Errorf("%w: no idle drone with battery >= %.0f%%", domain.ErrConflict, minBattery)
	}
	d := ds[best]
	d.Status = domain.DroneInMission
	out, err := s.repo.UpdateDrone(ctx, d)
	if err != nil {
		s.log.Error("dispatch drone", zap.String("id", d.ID), zap.Error(err))
		return Dispatch{}, err
	}
	s.record(ctx, "drone.dispatch", out.ID, map[string]any{
		"lat": target.Lat, "lon": target.Lon, "distance_km": bestDist,
	})
	return Dispatch{Drone: out, DistanceKm: bestDist}, nil
}
