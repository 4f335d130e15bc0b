package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
)

var now = time.Date(2026, 7, 10, 8, 0, 0, 0, time.UTC)

func due(days int) *time.Time {
	t := now.AddDate(0, 0, days)
	return &t
}

func TestRiskBasedPriority(t *testing.T) {
	r := NewRiskBasedScheduler(DefaultRules().Priority)

	tasks := []domain.ScheduledTask{
		{ID: "a", Title: "Repaint", Severity: domain.SeverityLow, DueAt: due(10)},
		{ID: "b", Title: "Fire pump", Severity: domain.SeverityCritical, ComplianceImpact: true, AssetCriticality: 1, DueAt: due(-20)},
		{ID: "c", Title: "Radar check", Severity: domain.SeverityHigh, DueAt: due(3)},
		{ID: "d", Title: "Radar spare", Severity: domain.SeverityHigh, DueAt: due(1)},
		{ID: "e", Title: "Galley audit", Severity: domain.SeverityHigh},
	}
	got := r.Prioritize(tasks, now)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.Task.ID
	}
	assert.Equal(t, []string{"b", "d", "c", "e", "a"}, ids)

	assert.Equal(t, 10.0, got[0].Score)
	assert.Equal(t, 20, got[0].OverdueDays)
	assert.Contains(t, got[0].Reasons, "compliance impact")
	assert.Equal(t, 4.5, got[1].Score)
	assert.Equal(t, 1.5, got[4].Score)
}

func TestPriorityClampsNegativeWeights(t *testing.T) {
	r := NewRiskBasedScheduler(PriorityWeights{Severity: -3})
	p := r.Score(domain.ScheduledTask{Severity: domain.SeverityCritical}, now)
	assert.Zero(t, p.Score)
}

func TestSmartPlan(t *testing.T) {
	s := NewSmartScheduler(NewRiskBasedScheduler(DefaultRules().Priority))
	tasks := []domain.ScheduledTask{
		{ID: "big", Title: "Dry dock prep", Severity: domain.SeverityHigh, EstimatedHours: 12, Status: domain.TaskPending},
		{ID: "crit", Title: "Steering repair", Severity: domain.SeverityCritical, EstimatedHours: 6, Status: domain.TaskPending, DueAt: due(-2)},
		{ID: "med", Title: "Log review", Severity: domain.SeverityMedium, EstimatedHours: 3, Status: domain.TaskAssigned},
		{ID: "low", Title: "Library", Severity: domain.SeverityLow, EstimatedHours: 5, Status: domain.TaskPending},
		{ID: "done", Title: "Old", Severity: domain.SeverityCritical, EstimatedHours: 1, Status: domain.TaskCompleted},
	}
	plan, err := s.Plan(tasks, now, 2, 8)
	require.NoError(t, err)
	require.Len(t, plan.Days, 2)

	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), plan.Days[0].Date)
	require.Len(t, plan.Days[0].Tasks, 1)
	assert.Equal(t, "crit", plan.Days[0].Tasks[0].Task.ID)
	assert.Equal(t, 6.0, plan.Days[0].Hours)

	require.Len(t, plan.Days[1].Tasks, 2)
	assert.Equal(t, "med", plan.Days[1].Tasks[0].Task.ID)
	assert.Equal(t, "low", plan.Days[1].Tasks[1].Task.ID)
	assert.Equal(t, 8.0, plan.Days[1].Hours)

	require.Len(t, plan.Unscheduled, 1)
	assert.Equal(t, "big", plan.Unscheduled[0].Task.ID)
	assert.Equal(t, "exceeds daily capacity", plan.Unscheduled[0].Reason)

	for _, d := range plan.Days {
		assert.LessOrEqual(t, d.Hours, d.Capacity)
	}
	assert.NotEmpty(t, plan.Recommendations)

	_, err = s.Plan(tasks, now, 0, 8)
	assert.ErrorIs(t, err, domain.ErrInvalid)
	_, err = s.Plan(tasks, now, 3, 30)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestSmartPlanScoresAtStartTime(t *testing.T) {
	s := NewSmartScheduler(NewRiskBasedScheduler(DefaultRules().Priority))
	late := now.Add(-30 * time.Hour)
	tasks := []domain.ScheduledTask{
		{ID: "late", Title: "Renew SOLAS certificate", Severity: domain.SeverityMedium, EstimatedHours: 2, Status: domain.TaskPending, DueAt: &late},
	}
	plan, err := s.Plan(tasks, now, 1, 8)
	require.NoError(t, err)
	require.Len(t, plan.Days[0].Tasks, 1)
	assert.Equal(t, 1, plan.Days[0].Tasks[0].OverdueDays)
	assert.Contains(t, plan.Recommendations, `"Renew SOLAS certificate" is overdue by 1 day(s); schedule it first`)
}

func TestRank(t *testing.T) {
	rules := DefaultRules()
	r := NewRanker(rules)
	site := domain.Position{Lat: 57.7, Lon: 11.9}
	task := domain.ScheduledTask{RequiredSkills: []string{"welding", "ndt"}, Location: &site}

	techs := []domain.Technician{
		{ID: "t1", Name: "Near partial", Skills: []string{"Welding"}, Position: site, Available: true, Rating: 4, MaxTasks: 4},
		{ID: "t2", Name: "Far full skills", Skills: []string{"welding", "NDT"}, Position: domain.Position{Lat: 59.3, Lon: 18.0}, Available: true, Rating: 3, MaxTasks: 4},
		{ID: "t3", Name: "Off", Skills: []string{"welding", "ndt"}, Position: site, Available: false, Rating: 5},
		{ID: "t4", Name: "Busy", Skills: []string{"welding", "ndt"}, Position: site, Available: true, ActiveTasks: 5, Rating: 5},
		{ID: "t5", Name: "No skills", Skills: []string{"painting"}, Position: site, Available: true, Rating: 5},
	}
	ranked := r.Rank(task, techs)
	require.Len(t, ranked, 5)

	assert.Equal(t, "t1", ranked[0].Technician.ID)
	assert.Equal(t, "t2", ranked[1].Technician.ID)
	assert.True(t, ranked[1].Eligible)
	require.NotNil(t, ranked[1].DistanceKm)
	assert.InDelta(t, 400, *ranked[1].DistanceKm, 20)

	reasons := map[string]string{}
	for _, c := range ranked[2:] {
		assert.False(t, c.Eligible)
		assert.Zero(t, c.Score)
		reasons[c.Technician.ID] = c.Reason
	}
	assert.Equal(t, "unavailable", reasons["t3"])
	assert.Equal(t, "at task capacity", reasons["t4"])
	assert.Equal(t, "no required skills", reasons["t5"])

	// 0.4*0.5 + 0.25*1 + 0.2*1 + 0.15*0.8
	assert.InDelta(t, 0.77, ranked[0].Score, 0.001)
}

func TestPickFromReply(t *testing.T) {
	short := []Candidate{
		{Technician: domain.Technician{ID: "tech-1", Name: "Ines Berg"}},
		{Technician: domain.Technician{ID: "tech-12", Name: "Ola Dahl"}},
	}
	c, ok := pickFromReply("I recommend tech-12 because of proximity.", short)
	require.True(t, ok)
	assert.Equal(t, "tech-12", c.Technician.ID)

	c, ok = pickFromReply("Best choice: ines berg; Ola Dahl is second.", short)
	require.True(t, ok)
	assert.Equal(t, "tech-1", c.Technician.ID)

	_, ok = pickFromReply("Nobody fits.", short)
	assert.False(t, ok)
}

func TestParseBreakdown(t *testing.T) {
	reply := `Here is the plan:
1. Isolate the starboard generator [critical] (2h)
2. Order replacement AVR, priority: high (0.5 hours)
- Update the maintenance log
* **Follow up with class surveyor** when possible
Step 5: Inspect 2 hatches (3 hrs)`

	tasks, ok := ParseBreakdown(reply)
	require.True(t, ok)
	require.Len(t, tasks, 5)

	assert.Equal(t, "Isolate the starboard generator", tasks[0].Title)
	assert.Equal(t, domain.SeverityCritical, tasks[0].Severity)
	assert.Equal(t, 2.0, tasks[0].EstimatedHours)

	assert.Equal(t, "Order replacement AVR", tasks[1].Title)
	assert.Equal(t, domain.SeverityHigh, tasks[1].Severity)
	assert.Equal(t, 0.5, tasks[1].EstimatedHours)

	assert.Equal(t, "Update the maintenance log", tasks[2].Title)
	assert.Equal(t, domain.SeverityMedium, tasks[2].Severity)
	assert.Equal(t, 1.0, tasks[2].EstimatedHours)

	assert.Equal(t, domain.SeverityLow, tasks[3].Severity)
	assert.Equal(t, "Inspect 2 hatches", tasks[4].Title)
	assert.Equal(t, 3.0, tasks[4].EstimatedHours)

	_, ok = ParseBreakdown("No list here.")
	assert.False(t, ok)
}

func TestFallbackBreakdown(t *testing.T) {
	tasks := FallbackBreakdown("Renew the IOPP certificate urgently. Check lifeboat davits; ok")
	require.Len(t, tasks, 2)
	assert.Equal(t, "Renew the IOPP certificate urgently", tasks[0].Title)
	assert.Equal(t, domain.SeverityCritical, tasks[0].Severity)
	assert.Equal(t, "Check lifeboat davits", tasks[1].Title)
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assignment:\n  distance: 0.5\nshortlist: 5\n"), 0o600))
	rules, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rules.Assignment.Distance)
	assert.Equal(t, 0.4, rules.Assignment.Skill)
	assert.Equal(t, 5, rules.Shortlist)

	require.NoError(t, os.WriteFile(path, []byte("distance_scale_km: -1\n"), 0o600))
	_, err = LoadRules(path)
	assert.Error(t, err)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
