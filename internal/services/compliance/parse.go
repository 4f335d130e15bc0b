package compliance

import (
	"regexp"
	"strconv"
	"strings"

	"fleetops/internal/domain"
)

var (
	scoreLabelRe   = regexp.MustCompile(`(?i)(?:compliance\s+)?score\s*(?:is|of|[:=])?\s*(\d{1,3}(?:\.\d+)?)\b`)
	scorePercentRe = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\s*%`)
	bulletRe       = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
)

// ParseEvaluation pulls a 0..100 score and bullet recommendations out of a
// free-text assistant reply. ok is false when no score is present.
func ParseEvaluation(text string) (domain.Evaluation, bool) {
	score, ok := parseScore(text)
	if !ok {
		return domain.Evaluation{}, false
	}
	ev := domain.Evaluation{
		Score:  score,
		Level:  domain.ComplianceLevel(score),
		Source: "ai",
	}
	for _, line := range strings.Split(text, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rec := strings.TrimSpace(m[1])
		if scoreLabelRe.MatchString(rec) && len(rec) < 24 {
			continue
		}
		ev.Recommendations = append(ev.Recommendations, rec)
	}
	return ev, true
}

func parseScore(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{scoreLabelRe, scorePercentRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 100 {
			continue
		}
		return v, true
	}
	return 0, false
}
