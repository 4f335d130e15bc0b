package httpadapter

import (
	"net/http"
	"time"

	"fleetops/internal/domain"
)

type statusRequest struct {
	Status domain.TaskStatus `json:"status"`
}

type breakdownRequest struct {
	Goal    string `json:"goal"`
	Persist bool   `json:"persist"`
}

type breakdownResponse struct {
	Source string                 `json:"source"`
	Tasks  []domain.ScheduledTask `json:"tasks"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	open := false
	if err := query(r, "open", &open); err != nil {
		s.fail(w, r, "list tasks", err)
		return
	}
	out, err := s.svc.Scheduler.ListTasks(r.Context(), open)
	if err != nil {
		s.fail(w, r, "list tasks", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in domain.ScheduledTask
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "create task", err)
		return
	}
	out, err := s.svc.Scheduler.CreateTask(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create task", err)
		return
	}
	s.created(w, out)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get task", err)
		return
	}
	out, err := s.svc.Scheduler.GetTask(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get task", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update task status", err)
		return
	}
	var in statusRequest
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "update task status", err)
		return
	}
	out, err := s.svc.Scheduler.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		s.fail(w, r, "update task status", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) prioritizedTasks(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Scheduler.Prioritized(r.Context())
	if err != nil {
		s.fail(w, r, "prioritized tasks", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "recommend technicians", err)
		return
	}
	out, err := s.svc.Scheduler.Recommend(r.Context(), id)
	if err != nil {
		s.fail(w, r, "recommend technicians", err)
		return
	}
	s.ok(w, out)
}

// assignTask assigns inline, or queues the job and answers 202 when async is set.
func (s *Server) assignTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "assign task", err)
		return
	}
	async := false
	if err := query(r, "async", &async); err != nil {
		s.fail(w, r, "assign task", err)
		return
	}
	if async {
		jobID, err := s.svc.Scheduler.EnqueueAssign(r.Context(), id)
		if err != nil {
			s.fail(w, r, "assign task", err)
			return
		}
		writeJSON(w, http.StatusAccepted, envelope{Success: true, Data: jobResponse{JobID: jobID, Status: "queued"}})
		return
	}
	out, err := s.svc.Scheduler.Assign(r.Context(), id)
	if err != nil {
		s.fail(w, r, "assign task", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "job status", err)
		return
	}
	status, err := s.svc.Scheduler.JobStatus(r.Context(), id)
	if err != nil {
		s.fail(w, r, "job status", err)
		return
	}
	s.ok(w, jobResponse{JobID: id, Status: status})
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	var (
		start time.Time
		days  = 7
		hours = 8.0
	)
	if err := query(r, "start", &start); err != nil {
		s.fail(w, r, "plan", err)
		return
	}
	if err := query(r, "days", &days); err != nil {
		s.fail(w, r, "plan", err)
		return
	}
	if err := query(r, "hours", &hours); err != nil {
		s.fail(w, r, "plan", err)
		return
	}
	out, err := s.svc.Scheduler.Plan(r.Context(), start, days, hours)
	if err != nil {
		s.fail(w, r, "plan", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) breakdown(w http.ResponseWriter, r *http.Request) {
	var in breakdownRequest
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "breakdown", err)
		return
	}
	tasks, source, err := s.svc.Scheduler.Breakdown(r.Context(), in.Goal, in.Persist)
	if err != nil {
		s.fail(w, r, "breakdown", err)
		return
	}
	resp := breakdownResponse{Source: source, Tasks: tasks}
	if in.Persist {
		s.created(w, resp)
		return
	}
	s.ok(w, resp)
}

func (s *Server) listTechnicians(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Scheduler.ListTechnicians(r.Context())
	if err != nil {
		s.fail(w, r, "list technicians", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) upsertTechnician(w http.ResponseWriter, r *http.Request) {
	var in domain.Technician
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, "upsert technician", err)
		return
	}
	out, err := s.svc.Scheduler.UpsertTechnician(r.Context(), in)
	if err != nil {
		s.fail(w, r, "upsert technician", err)
		return
	}
	s.ok(w, out)
}
