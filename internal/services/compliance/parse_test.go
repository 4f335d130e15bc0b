package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		score float64
		ok    bool
		nRecs int
	}{
		{"labelled", "Score: 91\nAll good.", 91, true, 0},
		{"sentence", "The overall compliance score is 64 given the open findings.", 64, true, 0},
		{"percent", "Roughly 77.5% of items pass.\n1. Fix the bilge alarm\n2) Log drills", 77.5, true, 2},
		{"bullets", "score=40\n* Replace EPIRB battery\n• Renew ISSC", 40, true, 2},
		{"none", "Looks fine to me", 0, false, 0},
		{"too big", "Score: 101", 0, false, 0},
		{"four digits", "Score: 1000", 0, false, 0},
		{"four digit percent", "Throughput rose 1000% this quarter", 0, false, 0},
		{"trailing period", "Final score: 82.", 82, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseEvaluation(tt.text)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.score, ev.Score)
			assert.Len(t, ev.Recommendations, tt.nRecs)
		})
	}
}
