package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PriorityWeights scale the risk-based priority factors.
type PriorityWeights struct {
	Severity    float64 `yaml:"severity"`
	Overdue     float64 `yaml:"overdue"`
	Compliance  float64 `yaml:"compliance"`
	Criticality float64 `yaml:"criticality"`
}

// AssignmentWeights scale the technician ranking factors. They should sum to 1.
type AssignmentWeights struct {
	Skill    float64 `yaml:"skill"`
	Distance float64 `yaml:"distance"`
	Workload float64 `yaml:"workload"`
	Rating   float64 `yaml:"rating"`
}

type Rules struct {
	Priority        PriorityWeights   `yaml:"priority"`
	Assignment      AssignmentWeights `yaml:"assignment"`
	DistanceScaleKm float64           `yaml:"distance_scale_km"`
	Shortlist       int               `yaml:"shortlist"`
	DefaultMaxTasks int               `yaml:"default_max_tasks"`
}

func DefaultRules() Rules {
	return Rules{
		Priority:        PriorityWeights{Severity: 1.5, Overdue: 0.6, Compliance: 1.5, Criticality: 1.0},
		Assignment:      AssignmentWeights{Skill: 0.4, Distance: 0.25, Workload: 0.2, Rating: 0.15},
		DistanceScaleKm: 50,
		Shortlist:       3,
		DefaultMaxTasks: 5,
	}
}

// LoadRules overlays a YAML rules file on the defaults. An empty path returns
// the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read scheduler rules: %w", err)
	}
	if err := yaml.Unmarshal(b, &rules); err != nil {
		return rules, fmt.Errorf("parse scheduler rules %s: %w", path, err)
	}
	if err := rules.validate(); err != nil {
		return rules, fmt.Errorf("scheduler rules %s: %w", path, err)
	}
	return rules, nil
}

func (r Rules) validate() error {
	for name, w := range map[string]float64{
		"priority.severity":    r.Priority.Severity,
		"priority.overdue":     r.Priority.Overdue,
		"priority.compliance":  r.Priority.Compliance,
		"priority.criticality": r.Priority.Criticality,
		"assignment.skill":     r.Assignment.Skill,
		"assignment.distance":  r.Assignment.Distance,
		"assignment.workload":  r.Assignment.Workload,
		"assignment.rating":    r.Assignment.Rating,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if r.DistanceScaleKm <= 0 {
		return fmt.Errorf("distance_scale_km must be positive")
	}
	if r.Shortlist < 1 {
		return fmt.Errorf("shortlist must be at least 1")
	}
	return nil
}
