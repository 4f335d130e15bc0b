package scheduler

import (
	"regexp"
	"strconv"
	"strings"

	"fleetops/internal/domain"
)

var (
	listItemRe = regexp.MustCompile(`(?i)^\s*(?:[-*•]|\d+[.)]|step\s+\d+[:.])\s*(.+)$`)
	hoursRe    = regexp.MustCompile(`(?i)\(?\s*(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b\s*\)?`)
	criticalRe = regexp.MustCompile(`(?i)\b(?:critical|urgent(?:ly)?|immediately|emergency)\b`)
	highRe     = regexp.MustCompile(`(?i)\b(?:high|important|asap)\b`)
	lowRe      = regexp.MustCompile(`(?i)\b(?:low|minor|when possible)\b`)
	tagRe      = regexp.MustCompile(`(?i)\[(critical|urgent|high|important|medium|low|minor)\]|\b(?:priority|severity)\s*[:=]\s*(critical|urgent|high|important|medium|low|minor)\b`)
	sentenceRe = regexp.MustCompile(`[.;!?\n]+`)
)

// ParseBreakdown turns a free-text plan into task drafts. Each list item
// becomes one task. ok is false when the text has no list items.
func ParseBreakdown(text string) ([]domain.ScheduledTask, bool) {
	var out []domain.ScheduledTask
	for _, line := range strings.Split(text, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if t, ok := draftFromLine(m[1]); ok {
			out = append(out, t)
		}
	}
	return out, len(out) > 0
}

// FallbackBreakdown splits a goal into one task per sentence.
func FallbackBreakdown(goal string) []domain.ScheduledTask {
	var out []domain.ScheduledTask
	for _, part := range sentenceRe.Split(goal, -1) {
		if t, ok := draftFromLine(part); ok {
			out = append(out, t)
		}
	}
	return out
}

func draftFromLine(line string) (domain.ScheduledTask, bool) {
	t := domain.ScheduledTask{Severity: severityFromText(line), Status: domain.TaskPending, EstimatedHours: 1}
	if m := hoursRe.FindStringSubmatch(line); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > 0 {
			t.EstimatedHours = h
		}
		line = strings.Replace(line, m[0], " ", 1)
	}
	line = tagRe.ReplaceAllString(line, " ")
	line = strings.Trim(strings.Join(strings.Fields(line), " "), " -:,.*")
	if len(line) < 3 {
		return t, false
	}
	t.Title = line
	return t, true
}

func severityFromText(s string) domain.Severity {
	switch {
	case criticalRe.MatchString(s):
		return domain.SeverityCritical
	case highRe.MatchString(s):
		return domain.SeverityHigh
	case lowRe.MatchString(s):
		return domain.SeverityLow
	}
	return domain.SeverityMedium
}
