package domain

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Open() bool {
	return s == TaskPending || s == TaskAssigned || s == TaskInProgress
}

type ScheduledTask struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Severity         Severity   `json:"severity"`
	Status           TaskStatus `json:"status"`
	RequiredSkills   []string   `json:"required_skills,omitempty"`
	EstimatedHours   float64    `json:"estimated_hours"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	Location         *Position  `json:"location,omitempty"`
	ComplianceImpact bool       `json:"compliance_impact"`
	AssetCriticality float64    `json:"asset_criticality"` // 0..1
	AssigneeRef      *string    `json:"assignee_ref,omitempty"`
	RiskRef          *string    `json:"risk_ref,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (t *ScheduledTask) Normalize() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task title is required", ErrInvalid)
	}
	if t.Severity == "" {
		t.Severity = SeverityMedium
	}
	if !t.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalid, t.Severity)
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.EstimatedHours <= 0 {
		t.EstimatedHours = 1
	}
	t.AssetCriticality = clamp(t.AssetCriticality, 0, 1)
	return nil
}

type Technician struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Skills      []string `json:"skills,omitempty"`
	Position    Position `json:"position"`
	Available   bool     `json:"available"`
	ActiveTasks int      `json:"active_tasks"`
	MaxTasks    int      `json:"max_tasks"`
	Rating      float64  `json:"rating"` // 0..5
}

// HasSkill compares case-insensitively.
func (t Technician) HasSkill(skill string) bool {
	for _, s := range t.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskAssigned, TaskInProgress, TaskCancelled},
	TaskAssigned:   {TaskPending, TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskCompleted, TaskCancelled},
}

// Transition changes the status if the move is allowed.
func (t *ScheduledTask) Transition(to TaskStatus) error {
	for _, s := range taskTransitions[t.Status] {
		if s == to {
			t.Status = to
			if to == TaskPending {
				t.AssigneeRef = nil
			}
			return nil
		}
	}
	return fmt.Errorf("%w: task cannot move from %s to %s", ErrConflict, t.Status, to)
}

// OverdueDays is the whole number of days past the due date, or 0.
func (t ScheduledTask) OverdueDays(now time.Time) int {
	if t.DueAt == nil || !now.After(*t.DueAt) {
		return 0
	}
	return int(now.Sub(*t.DueAt).Hours() / 24)
}
