package scheduler

import (
	"fmt"
	"time"

	"fleetops/internal/domain"
)

type DayPlan struct {
	Date     time.Time         `json:"date"`
	Tasks    []PrioritizedTask `json:"tasks,omitempty"`
	Hours    float64           `json:"hours"`
	Capacity float64           `json:"capacity"`
}

func (d DayPlan) Utilization() float64 {
	if d.Capacity == 0 {
		return 0
	}
	return d.Hours / d.Capacity
}

type Unscheduled struct {
	Task   domain.ScheduledTask `json:"task"`
	Reason string               `json:"reason"`
}

type Plan struct {
	Days            []DayPlan     `json:"days,omitempty"`
	Unscheduled     []Unscheduled `json:"unscheduled,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// SmartScheduler places prioritized work into daily capacity buckets.
type SmartScheduler struct {
	priority *RiskBasedScheduler
}

func NewSmartScheduler(priority *RiskBasedScheduler) *SmartScheduler {
	return &SmartScheduler{priority: priority}
}

// Plan fills days starting at start, highest priority first. A task goes to
// the first day with room for its estimated hours and is never split. Day
// capacity is never exceeded.
func (s *SmartScheduler) Plan(tasks []domain.ScheduledTask, start time.Time, days int, dailyHours float64) (Plan, error) {
	if days < 1 || days > 90 {
		return Plan{}, fmt.Errorf("%w: horizon must be 1..90 days", domain.ErrInvalid)
	}
	if dailyHours <= 0 || dailyHours > 24 {
		return Plan{}, fmt.Errorf("%w: daily hours must be within (0, 24]", domain.ErrInvalid)
	}
	now := start
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	plan := Plan{Days: make([]DayPlan, days)}
	for i := range plan.Days {
		plan.Days[i] = DayPlan{Date: start.AddDate(0, 0, i), Capacity: dailyHours}
	}

	for _, pt := range s.priority.Prioritize(tasks, now) {
		t := pt.Task
		if !t.Status.Open() {
			continue
		}
		if pt.OverdueDays > 0 {
			plan.Recommendations = append(plan.Recommendations,
				fmt.Sprintf("%q is overdue by %d day(s); schedule it first", t.Title, pt.OverdueDays))
		}
		if t.EstimatedHours > dailyHours {
			plan.Unscheduled = append(plan.Unscheduled, Unscheduled{Task: t, Reason: "exceeds daily capacity"})
			plan.Recommendations = append(plan.Recommendations,
				fmt.Sprintf("split %q (%.1fh) into smaller tasks", t.Title, t.EstimatedHours))
			continue
		}
		placed := false
		for i := range plan.Days {
			d := &plan.Days[i]
			if d.Hours+t.EstimatedHours > d.Capacity {
				continue
			}
			d.Tasks = append(d.Tasks, pt)
			d.Hours += t.EstimatedHours
			placed = true
			if t.DueAt != nil && d.Date.After(*t.DueAt) && pt.OverdueDays == 0 {
				plan.Recommendations = append(plan.Recommendations,
					fmt.Sprintf("%q lands after its due date on %s", t.Title, d.Date.Format(time.DateOnly)))
			}
			break
		}
		if !placed {
			plan.Unscheduled = append(plan.Unscheduled, Unscheduled{Task: t, Reason: "no capacity in horizon"})
		}
	}

	for _, d := range plan.Days {
		if d.Utilization() >= 0.9 {
			plan.Recommendations = append(plan.Recommendations,
				fmt.Sprintf("%s is at %.0f%% capacity", d.Date.Format(time.DateOnly), d.Utilization()*100))
		}
	}
	if len(plan.Unscheduled) > 0 {
		plan.Recommendations = append(plan.Recommendations,
			fmt.Sprintf("%d task(s) could not be scheduled; extend the horizon or add crew", len(plan.Unscheduled)))
	}
	return plan, nil
}
