package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Level string

const (
	LevelExcellent        Level = "excellent"
	LevelGood             Level = "good"
	LevelNeedsImprovement Level = "needs_improvement"
	LevelCritical         Level = "critical"
)

// ComplianceLevel bands a 0..100 compliance score.
func ComplianceLevel(score float64) Level {
	score = math.Max(0, math.Min(100, score))
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 50:
		return LevelNeedsImprovement
	default:
		return LevelCritical
	}
}

// Checklist item statuses.
const (
	ItemOK      = "ok"
	ItemIssue   = "issue"
	ItemNA      = "na"
	ItemPending = "pending"
)

type ChecklistItem struct {
	ID       string `json:"id"`
	Section  string `json:"section"`
	Question string `json:"question"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

type Evaluation struct {
	Score           float64   `json:"score"`
	Level           Level     `json:"level"`
	Findings        []string  `json:"findings,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Source          string    `json:"source"` // ai|fallback
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// FallbackComplianceEvaluation scores a checklist without the assistant: the
// percentage of all items marked ok. Items marked na still count toward the total.
func FallbackComplianceEvaluation(items []ChecklistItem) Evaluation {
	ev := Evaluation{Source: "fallback"}
	var ok int
	for _, it := range items {
		switch it.Status {
		case ItemOK:
			ok++
		case ItemIssue:
			label := it.Question
			if it.Section != "" {
				label = it.Section + ": " + it.Question
			}
			ev.Findings = append(ev.Findings, label)
			rec := "Resolve: " + it.Question
			if n := strings.TrimSpace(it.Notes); n != "" {
				rec += " (" + n + ")"
			}
			ev.Recommendations = append(ev.Recommendations, rec)
		}
	}
	if len(items) > 0 {
		ev.Score = math.Round(float64(ok) / float64(len(items)) * 100)
	}
	ev.Level = ComplianceLevel(ev.Score)
	return ev
}

type Audit struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	VesselRef   *string         `json:"vessel_ref,omitempty"`
	Auditor     string          `json:"auditor"`
	Standard    string          `json:"standard"` // e.g. ISM, ISPS, MARPOL
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Status      string          `json:"status"` // planned|in_progress|completed
	Items       []ChecklistItem `json:"items,omitempty"`
	Evaluation  *Evaluation     `json:"evaluation,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

const (
	AuditPlanned    = "planned"
	AuditInProgress = "in_progress"
	AuditCompleted  = "completed"
)

func (a *Audit) Normalize() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: audit title is required", ErrInvalid)
	}
	if a.Status == "" {
		a.Status = AuditPlanned
	}
	for i := range a.Items {
		if a.Items[i].ID == "" {
			a.Items[i].ID = fmt.Sprintf("item-%d", i+1)
		}
		switch a.Items[i].Status {
		case "":
			a.Items[i].Status = ItemPending
		case ItemOK, ItemIssue, ItemNA, ItemPending:
		default:
			return fmt.Errorf("%w: unknown checklist status %q", ErrInvalid, a.Items[i].Status)
		}
	}
	return nil
}

// ComplianceDocument is a certificate or permit with an expiry date.
type ComplianceDocument struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Kind       string     `json:"kind"` // certificate|permit|policy|report
	VesselRef  *string    `json:"vessel_ref,omitempty"`
	DocumentID *string    `json:"document_id,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Status     string     `json:"status"` // valid|expiring|expired
	CreatedAt  time.Time  `json:"created_at"`
}

// DeriveStatus sets Status from the expiry date relative to now. Documents
// expiring within warnDays are marked expiring.
func (d *ComplianceDocument) DeriveStatus(now time.Time, warnDays int) {
	switch {
	case d.ExpiresAt == nil:
		d.Status = "valid"
	case !d.ExpiresAt.After(now):
		d.Status = "expired"
	case d.ExpiresAt.Before(now.AddDate(0, 0, warnDays)):
		d.Status = "expiring"
	default:
		d.Status = "valid"
	}
}
