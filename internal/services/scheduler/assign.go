package scheduler

import (
	"math"
	"sort"
	"strings"

	"fleetops/internal/domain"
)

// Factor is one weighted input to a technician's score.
type Factor struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
}

type Candidate struct {
	Technician domain.Technician `json:"technician"`
	Score      float64           `json:"score"`
	DistanceKm *float64          `json:"distance_km,omitempty"`
	Factors    []Factor          `json:"factors,omitempty"`
	Eligible   bool              `json:"eligible"`
	Reason     string            `json:"reason"`
}

// Ranker scores technicians for a task with a weighted additive model.
type Ranker struct {
	rules Rules
}

func NewRanker(rules Rules) *Ranker { return &Ranker{rules: rules} }

// Rank returns every technician, eligible ones first by descending score.
// Unavailable, full or completely unskilled technicians are ineligible and
// score zero.
func (r *Ranker) Rank(task domain.ScheduledTask, techs []domain.Technician) []Candidate {
	out := make([]Candidate, 0, len(techs))
	for _, tech := range techs {
		out = append(out, r.score(task, tech))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Eligible != out[j].Eligible {
			return out[i].Eligible
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Technician.ID < out[j].Technician.ID
	})
	return out
}

func (r *Ranker) score(task domain.ScheduledTask, tech domain.Technician) Candidate {
	c := Candidate{Technician: tech, Eligible: true}
	w := r.rules.Assignment

	skill := skillFactor(task, tech)
	dist, km := r.distanceFactor(task, tech)
	c.DistanceKm = km
	load := r.workloadFactor(tech)
	rating := Factor{Name: "rating", Score: clamp01(tech.Rating / 5), Reason: "technician rating"}

	c.Factors = []Factor{skill, dist, load, rating}
	weights := []float64{w.Skill, w.Distance, w.Workload, w.Rating}

	switch {
	case !tech.Available:
		c.Eligible, c.Reason = false, "unavailable"
	case load.Score == 0:
		c.Eligible, c.Reason = false, "at task capacity"
	case len(task.RequiredSkills) > 0 && skill.Score == 0:
		c.Eligible, c.Reason = false, "no required skills"
	}

	var total float64
	for i := range c.Factors {
		c.Factors[i].Weight = weights[i]
		c.Factors[i].Weighted = c.Factors[i].Score * weights[i]
		total += c.Factors[i].Weighted
	}
	if c.Eligible {
		c.Score = math.Round(total*1000) / 1000
		c.Reason = "eligible"
	}
	return c
}

func skillFactor(task domain.ScheduledTask, tech domain.Technician) Factor {
	if len(task.RequiredSkills) == 0 {
		return Factor{Name: "skill", Score: 1, Reason: "no skills required"}
	}
	var have []string
	for _, s := range task.RequiredSkills {
		if tech.HasSkill(s) {
			have = append(have, s)
		}
	}
	return Factor{
		Name:   "skill",
		Score:  float64(len(have)) / float64(len(task.RequiredSkills)),
		Reason: "matched: " + strings.Join(have, ","),
	}
}

func (r *Ranker) distanceFactor(task domain.ScheduledTask, tech domain.Technician) (Factor, *float64) {
	if task.Location == nil {
		return Factor{Name: "distance", Score: 0.5, Reason: "task has no location"}, nil
	}
	km := domain.HaversineKm(tech.Position, *task.Location)
	return Factor{Name: "distance", Score: 1 / (1 + km/r.rules.DistanceScaleKm), Reason: "haversine"}, &km
}

func (r *Ranker) workloadFactor(tech domain.Technician) Factor {
	max := tech.MaxTasks
	if max <= 0 {
		max = r.rules.DefaultMaxTasks
	}
	return Factor{Name: "workload", Score: clamp01(1 - float64(tech.ActiveTasks)/float64(max)), Reason: "active/max tasks"}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// pickFromReply returns the shortlisted candidate the reply names first, by
// id or by full name. ok is false when no candidate is mentioned.
func pickFromReply(reply string, shortlist []Candidate) (Candidate, bool) {
	lower := strings.ToLower(reply)
	best, bestPos := -1, len(lower)+1
	for i, c := range shortlist {
		for _, needle := range []string{c.Technician.ID, c.Technician.Name} {
			if needle == "" {
				continue
			}
			if pos := indexWord(lower, strings.ToLower(needle)); pos >= 0 && pos < bestPos {
				best, bestPos = i, pos
			}
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return shortlist[best], true
}

// indexWord finds needle in s where it is not embedded in a longer token, so
// "tech-1" does not match inside "tech-12".
func indexWord(s, needle string) int {
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '-' || b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
