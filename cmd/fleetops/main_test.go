package main

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"report", "compliance"}, {"export", "invoices"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSeverityText(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "critical", severityText(domain.SeverityCritical))
	assert.Equal(t, "low", severityText(domain.SeverityLow))
	assert.Equal(t, "needs_improvement", levelText(domain.LevelNeedsImprovement))
}
