package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"fleetops/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(domain.AIRequest{
		Module:  "compliance",
		Action:  "evaluate_audit",
		Payload: map[string]any{"title": "ISM annual"},
	})
	require.NoError(t, err)
	assert.Contains(t, p, "Module: compliance\nAction: evaluate_audit\n")
	assert.Contains(t, p, "compliance score")
	assert.Contains(t, p, `"title": "ISM annual"`)

	_, err = BuildPrompt(domain.AIRequest{Action: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: " Score: 88"},
			{Text: "\n- renew SMC "},
		}},
	}}}
	assert.Equal(t, "Score: 88\n- renew SMC", responseText(resp))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), domain.AIRequest{})
	assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", nil)
	assert.Error(t, err)
}
