package scheduler

import (
	"math"
	"sort"
	"time"

	"fleetops/internal/domain"
)

const (
	maxPriority    = 10.0
	maxOverdueDays = 5
)

type PrioritizedTask struct {
	Task        domain.ScheduledTask `json:"task"`
	Score       float64              `json:"score"`
	OverdueDays int                  `json:"overdue_days"`
	Reasons     []string             `json:"reasons,omitempty"`
}

// RiskBasedScheduler orders tasks by a weighted risk score in 0..10.
type RiskBasedScheduler struct {
	weights PriorityWeights
}

func NewRiskBasedScheduler(w PriorityWeights) *RiskBasedScheduler {
	return &RiskBasedScheduler{weights: w}
}

// Score computes one task's priority.
func (r *RiskBasedScheduler) Score(t domain.ScheduledTask, now time.Time) PrioritizedTask {
	p := PrioritizedTask{Task: t, OverdueDays: t.OverdueDays(now)}
	score := float64(t.Severity.Weight()) * r.weights.Severity
	p.Reasons = append(p.Reasons, "severity "+string(t.Severity))

	if p.OverdueDays > 0 {
		score += float64(min(p.OverdueDays, maxOverdueDays)) * r.weights.Overdue
		p.Reasons = append(p.Reasons, "overdue")
	}
	if t.ComplianceImpact {
		score += r.weights.Compliance
		p.Reasons = append(p.Reasons, "compliance impact")
	}
	if t.AssetCriticality > 0 {
		score += t.AssetCriticality * r.weights.Criticality
	}
	p.Score = math.Round(math.Max(0, math.Min(maxPriority, score))*100) / 100
	return p
}

// Prioritize scores tasks and sorts them by score, then earliest due date,
// then id. Tasks without a due date sort after dated ones on ties.
func (r *RiskBasedScheduler) Prioritize(tasks []domain.ScheduledTask, now time.Time) []PrioritizedTask {
	out := make([]PrioritizedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, r.Score(t, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.Task.DueAt != nil && b.Task.DueAt != nil && !a.Task.DueAt.Equal(*b.Task.DueAt):
			return a.Task.DueAt.Before(*b.Task.DueAt)
		case a.Task.DueAt != nil && b.Task.DueAt == nil:
			return true
		case a.Task.DueAt == nil && b.Task.DueAt != nil:
			return false
		}
		return a.Task.ID < b.Task.ID
	})
	return out
}
