package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
)

type Service struct {
	tasks     ports.TaskRepository
	techs     ports.TechnicianRepository
	jobs      ports.JobRepository
	assistant ports.Assistant
	recorder  ports.AuditRecorder
	log       *zap.Logger
	rules     Rules

	priority *RiskBasedScheduler
	planner  *SmartScheduler
	ranker   *Ranker
	now      func() time.Time
}

func New(tasks ports.TaskRepository, techs ports.TechnicianRepository, jobs ports.JobRepository,
	assistant ports.Assistant, recorder ports.AuditRecorder, log *zap.Logger, rules Rules) *Service {
	priority := NewRiskBasedScheduler(rules.Priority)
	return &Service{
		tasks:     tasks,
		techs:     techs,
		jobs:      jobs,
		assistant: assistant,
		recorder:  recorder,
		log:       log,
		rules:     rules,
		priority:  priority,
		planner:   NewSmartScheduler(priority),
		ranker:    NewRanker(rules),
		now:       time.Now,
	}
}

func (s *Service) record(ctx context.Context, action, resourceType, id string, meta map[string]any) {
	s.recorder.Record(ctx, domain.AuditLogEntry{
		Actor:        auditlog.ActorFrom(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Metadata:     meta,
	})
}

// Tasks

func (s *Service) CreateTask(ctx context.Context, t domain.ScheduledTask) (domain.ScheduledTask, error) {
	t.Status = domain.TaskPending
	t.AssigneeRef = nil
	if err := t.Normalize(); err != nil {
		return t, err
	}
	out, err := s.tasks.CreateTask(ctx, t)
	if err != nil {
		s.log.Error("create task", zap.String("title", t.Title), zap.Error(err))
		return out, err
	}
	s.record(ctx, "task.create", "task", out.ID, map[string]any{"severity": string(out.Severity)})
	return out, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (domain.ScheduledTask, error) {
	return s.tasks.GetTask(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context, openOnly bool) ([]domain.ScheduledTask, error) {
	return s.tasks.ListTasks(ctx, openOnly)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to domain.TaskStatus) (domain.ScheduledTask, error) {
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return t, err
	}
	from, assignee := t.Status, t.AssigneeRef
	if err := t.Transition(to); err != nil {
		return t, err
	}
	var out domain.ScheduledTask
	if releasesSlot(from, to, assignee) {
		out, err = s.tasks.ReleaseTask(ctx, t, *assignee)
	} else {
		out, err = s.tasks.UpdateTask(ctx, t)
	}
	if err != nil {
		s.log.Error("update task status", zap.String("id", id), zap.Error(err))
		return out, err
	}
	s.record(ctx, "task.transition", "task", id, map[string]any{"from": string(from), "to": string(to)})
	return out, nil
}

// releasesSlot reports whether a move frees the assignee's workload slot:
// the task held one and is now closed or back in the pending pool.
func releasesSlot(from, to domain.TaskStatus, assignee *string) bool {
	if assignee == nil || (from != domain.TaskAssigned && from != domain.TaskInProgress) {
		return false
	}
	return to == domain.TaskPending || !to.Open()
}

// Prioritized returns open tasks ordered by risk score.
func (s *Service) Prioritized(ctx context.Context) ([]PrioritizedTask, error) {
	ts, err := s.tasks.ListTasks(ctx, true)
	if err != nil {
		return nil, err
	}
	return s.priority.Prioritize(ts, s.now()), nil
}

func (s *Service) Plan(ctx context.Context, start time.Time, days int, dailyHours float64) (Plan, error) {
	ts, err := s.tasks.ListTasks(ctx, true)
	if err != nil {
		return Plan{}, err
	}
	if start.IsZero() {
		start = s.now()
	}
	return s.planner.Plan(ts, start, days, dailyHours)
}

// Technicians

func (s *Service) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	return s.techs.ListTechnicians(ctx)
}

func (s *Service) UpsertTechnician(ctx context.Context, t domain.Technician) (domain.Technician, error) {
	if strings.TrimSpace(t.Name) == "" {
		return t, fmt.Errorf("%w: technician name is required", domain.ErrInvalid)
	}
	if t.Rating < 0 || t.Rating > 5 {
		return t, fmt.Errorf("%w: rating must be within 0..5", domain.ErrInvalid)
	}
	out, err := s.techs.UpsertTechnician(ctx, t)
	if err != nil {
		s.log.Error("upsert technician", zap.String("name", t.Name), zap.Error(err))
		return out, err
	}
	s.record(ctx, "technician.upsert", "technician", out.ID, nil)
	return out, nil
}

// Assignment

type Assignment struct {
	TaskID     string            `json:"task_id"`
	Technician domain.Technician `json:"technician"`
	Score      float64           `json:"score"`
	Source     string            `json:"source"` // ai|heuristic
	Rationale  string            `json:"rationale"`
	Candidates []Candidate       `json:"candidates,omitempty"`
}

// Recommend ranks technicians for a task without assigning.
func (s *Service) Recommend(ctx context.Context, taskID string) ([]Candidate, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	techs, err := s.techs.ListTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(t, techs), nil
}

// Assign ranks technicians for a pending task, asks the assistant to choose
// among the shortlist and assigns the choice. The top ranked candidate is
// used when the assistant fails or names nobody on the shortlist.
func (s *Service) Assign(ctx context.Context, taskID string) (Assignment, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return Assignment{}, err
	}
	if t.Status != domain.TaskPending {
		return Assignment{}, fmt.Errorf("%w: task %s is %s", domain.ErrConflict, taskID, t.Status)
	}
	techs, err := s.techs.ListTechnicians(ctx)
	if err != nil {
		return Assignment{}, err
	}
	ranked := s.ranker.Rank(t, techs)
	var shortlist []Candidate
	for _, c := range ranked {
		if c.Eligible && len(shortlist) < s.rules.Shortlist {
			shortlist = append(shortlist, c)
		}
	}
	if len(shortlist) == 0 {
		return Assignment{}, fmt.Errorf("%w: no eligible technician for task %s", domain.ErrConflict, taskID)
	}

	a := Assignment{TaskID: taskID, Candidates: shortlist}
	choice := shortlist[0]
	a.Source = "heuristic"
	a.Rationale = "highest weighted score"

	if len(shortlist) > 1 {
		resp, err := s.assistant.Complete(ctx, domain.AIRequest{
			Module:  "scheduler",
			Action:  "assign_task",
			Payload: assignPayload(t, shortlist),
		})
		switch {
		case errors.Is(err, domain.ErrAssistantUnavailable):
		case err != nil:
			s.log.Warn("assistant assignment failed, using ranking", zap.String("task_id", taskID), zap.Error(err))
		default:
			if picked, ok := pickFromReply(resp.Text, shortlist); ok {
				choice = picked
				a.Source = "ai"
				a.Rationale = strings.TrimSpace(resp.Text)
			} else {
				s.log.Info("assistant named no shortlisted technician", zap.String("task_id", taskID))
			}
		}
	}
	a.Technician = choice.Technician
	a.Score = choice.Score

	if err := s.tasks.AssignTask(ctx, taskID, choice.Technician.ID); err != nil {
		s.log.Error("assign task", zap.String("task_id", taskID), zap.String("technician_id", choice.Technician.ID), zap.Error(err))
		return a, err
	}
	s.record(ctx, "task.assign", "task", taskID, map[string]any{
		"technician": choice.Technician.ID,
		"score":      choice.Score,
		"source":     a.Source,
	})
	return a, nil
}

func assignPayload(t domain.ScheduledTask, shortlist []Candidate) map[string]any {
	cands := make([]map[string]any, 0, len(shortlist))
	for _, c := range shortlist {
		m := map[string]any{
			"id":     c.Technician.ID,
			"name":   c.Technician.Name,
			"skills": c.Technician.Skills,
			"score":  c.Score,
			"active": c.Technician.ActiveTasks,
		}
		if c.DistanceKm != nil {
			m["distance_km"] = *c.DistanceKm
		}
		cands = append(cands, m)
	}
	return map[string]any{
		"task": map[string]any{
			"title":           t.Title,
			"description":     t.Description,
			"severity":        string(t.Severity),
			"required_skills": t.RequiredSkills,
			"estimated_hours": t.EstimatedHours,
		},
		"candidates":  cands,
		"instruction": "Reply with the id of the best candidate and one sentence of rationale.",
	}
}

// EnqueueAssign queues an assignment for the background workers.
func (s *Service) EnqueueAssign(ctx context.Context, taskID string) (string, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	if t.Status != domain.TaskPending {
		return "", fmt.Errorf("%w: task %s is %s", domain.ErrConflict, taskID, t.Status)
	}
	id, err := s.jobs.EnqueueAssignment(ctx, taskID)
	if err != nil {
		s.log.Error("enqueue assignment", zap.String("task_id", taskID), zap.Error(err))
		return "", err
	}
	return id, nil
}

func (s *Service) JobStatus(ctx context.Context, jobID string) (string, error) {
	return s.jobs.JobStatus(ctx, jobID)
}

// Breakdown

// Breakdown asks the assistant to split a goal into tasks. The reply is parsed
// line by line; the goal's own sentences are used when that yields nothing.
// With persist set the drafts are created as pending tasks.
func (s *Service) Breakdown(ctx context.Context, goal string, persist bool) ([]domain.ScheduledTask, string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, "", fmt.Errorf("%w: goal is required", domain.ErrInvalid)
	}
	source := "fallback"
	var drafts []domain.ScheduledTask

	resp, err := s.assistant.Complete(ctx, domain.AIRequest{
		Module:  "scheduler",
		Action:  "breakdown",
		Payload: map[string]any{"goal": goal, "format": "numbered list, one task per line, hours in parentheses"},
	})
	switch {
	case errors.Is(err, domain.ErrAssistantUnavailable):
	case err != nil:
		s.log.Warn("assistant breakdown failed, using fallback", zap.Error(err))
	default:
		if parsed, ok := ParseBreakdown(resp.Text); ok {
			drafts, source = parsed, "ai"
		}
	}
	if drafts == nil {
		drafts = FallbackBreakdown(goal)
	}
	if !persist {
		return drafts, source, nil
	}
	out := make([]domain.ScheduledTask, 0, len(drafts))
	for _, d := range drafts {
		created, err := s.CreateTask(ctx, d)
		if err != nil {
			return out, source, err
		}
		out = append(out, created)
	}
	return out, source, nil
}
