package domain

import (
	"fmt"
	"time"
)

type DroneStatus string

const (
	DroneIdle        DroneStatus = "idle"
	DroneInMission   DroneStatus = "in_mission"
	DroneCharging    DroneStatus = "charging"
	DroneMaintenance DroneStatus = "maintenance"
	DroneOffline     DroneStatus = "offline"
)

const (
	// LowBatteryPercent is the level under which a drone not on a mission is sent to charge.
	LowBatteryPercent = 15
	// ResumeBatteryPercent is the level at which a charging drone is idle again.
	ResumeBatteryPercent = 80
)

func (s DroneStatus) Valid() bool {
	switch s {
	case DroneIdle, DroneInMission, DroneCharging, DroneMaintenance, DroneOffline:
		return true
	}
	return false
}

type Drone struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Model      string      `json:"model"`
	Status     DroneStatus `json:"status"`
	Battery    float64     `json:"battery"`
	Position   Position    `json:"position"`
	Altitude   float64     `json:"altitude"`
	VesselRef  *string     `json:"vessel_ref,omitempty"`
	LastSeenAt *time.Time  `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (d *Drone) Normalize() error {
	if d.Name == "" {
		return fmt.Errorf("%w: drone name is required", ErrInvalid)
	}
	if d.Status == "" {
		d.Status = DroneIdle
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: unknown drone status %q", ErrInvalid, d.Status)
	}
	d.Battery = clamp(d.Battery, 0, 100)
	return nil
}

type Telemetry struct {
	DroneID    string    `json:"drone_id"`
	Battery    float64   `json:"battery"`
	Position   Position  `json:"position"`
	Altitude   float64   `json:"altitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Apply folds a telemetry sample into the drone state.
func (d *Drone) Apply(t Telemetry) {
	d.Battery = clamp(t.Battery, 0, 100)
	d.Position = t.Position
	d.Altitude = t.Altitude
	ts := t.RecordedAt
	d.LastSeenAt = &ts
	if d.Status == DroneOffline {
		d.Status = DroneIdle
	}
	switch {
	case d.Battery < LowBatteryPercent && d.Status != DroneInMission:
		d.Status = DroneCharging
	case d.Status == DroneCharging && d.Battery >= ResumeBatteryPercent:
		d.Status = DroneIdle
	}
}

type FleetStatus struct {
	Total          int                 `json:"total"`
	ByStatus       map[DroneStatus]int `json:"by_status,omitempty"`
	AverageBattery float64             `json:"average_battery"`
	LowBattery     []string            `json:"low_battery,omitempty"`
}

func SummarizeFleet(drones []Drone) FleetStatus {
	fs := FleetStatus{Total: len(drones), ByStatus: map[DroneStatus]int{}}
	var sum float64
	for _, d := range drones {
		fs.ByStatus[d.Status]++
		sum += d.Battery
		if d.Battery < LowBatteryPercent {
			fs.LowBattery = append(fs.LowBattery, d.ID)
		}
	}
	if len(drones) > 0 {
		fs.AverageBattery = sum / float64(len(drones))
	}
	return fs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
