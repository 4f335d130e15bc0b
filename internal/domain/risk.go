package domain

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists every bucket from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Weight ranks a severity for sorting and scoring, critical being 4.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type Risk struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Likelihood  int       `json:"likelihood"` // 1..5
	Impact      int       `json:"impact"`     // 1..5
	Severity    Severity  `json:"severity"`
	Owner       string    `json:"owner"`
	Mitigation  string    `json:"mitigation"`
	Status      string    `json:"status"` // open|mitigating|closed
	VesselRef   *string   `json:"vessel_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	RiskOpen       = "open"
	RiskMitigating = "mitigating"
	RiskClosed     = "closed"
)

// CalculateRiskSeverity buckets likelihood × impact. Both inputs are on a 1..5 scale.
func CalculateRiskSeverity(likelihood, impact int) (Severity, error) {
	if likelihood < 1 || likelihood > 5 || impact < 1 || impact > 5 {
		return "", fmt.Errorf("%w: likelihood and impact must be within 1..5", ErrInvalid)
	}
	score := likelihood * impact
	switch {
	case score >= 20:
		return SeverityCritical, nil
	case score >= 12:
		return SeverityHigh, nil
	case score >= 6:
		return SeverityMedium, nil
	default:
		return SeverityLow, nil
	}
}

// Normalize fills defaults and recomputes the derived severity.
func (r *Risk) Normalize() error {
	if r.Title == "" {
		return fmt.Errorf("%w: risk title is required", ErrInvalid)
	}
	sev, err := CalculateRiskSeverity(r.Likelihood, r.Impact)
	if err != nil {
		return err
	}
	r.Severity = sev
	switch r.Status {
	case "":
		r.Status = RiskOpen
	case RiskOpen, RiskMitigating, RiskClosed:
	default:
		return fmt.Errorf("%w: unknown risk status %q", ErrInvalid, r.Status)
	}
	return nil
}

// RiskMatrix counts open risks per severity.
type RiskMatrix map[Severity]int

func BuildRiskMatrix(risks []Risk) RiskMatrix {
	m := RiskMatrix{}
	for _, s := range Severities {
		m[s] = 0
	}
	for _, r := range risks {
		if r.Status == RiskClosed {
			continue
		}
		m[r.Severity]++
	}
	return m
}
