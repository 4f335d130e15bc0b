package httpadapter

import (
	"net/http"

	"fleetops/internal/domain"
)

type dispatchRequest struct {
	Target     domain.Position `json:"target"`
	MinBattery float64         `json:"min_battery"`
}

func (s *Server) listDrones(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Drones.List(r.Context())
	if err != nil {
		s.fail(w, r, "list drones", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) fleetStatus(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Drones.FleetStatus(r.Context())
	if err != nil {
		s.fail(w, r, "fleet status", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createDrone(w http.ResponseWriter, r *http.Request) {
	var in domain.Drone
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create drone", err)
		return
	}
	out, err := s.svc.Drones.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create drone", err)
		return
	}
	s.created(w, out)
}

func (s *Server) getDrone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get drone", err)
		return
	}
	out, err := s.svc.Drones.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get drone", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) updateDrone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update drone", err)
		return
	}
	var in domain.Drone
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "update drone", err)
		return
	}
	in.ID = id
	out, err := s.svc.Drones.Update(r.Context(), in)
	if err != nil {
		s.fail(w, r, "update drone", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) deleteDrone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = s.svc.Drones.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, "delete drone", err)
		return
	}
	s.ok(w, nil)
}

func (s *Server) recordTelemetry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "record telemetry", err)
		return
	}
	var in domain.Telemetry
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "record telemetry", err)
		return
	}
	in.DroneID = id
	out, err := s.svc.Drones.RecordTelemetry(r.Context(), in)
	if err != nil {
		s.fail(w, r, "record telemetry", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) dispatchDrone(w http.ResponseWriter, r *http.Request) {
	var in dispatchRequest
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "dispatch drone", err)
		return
	}
	if in.MinBattery <= 0 {
		in.MinBattery = domain.LowBatteryPercent
	}
	out, err := s.svc.Drones.DispatchNearest(r.Context(), in.Target, in.MinBattery)
	if err != nil {
		s.fail(w, r, "dispatch drone", err)
		return
	}
	s.ok(w, out)
}
