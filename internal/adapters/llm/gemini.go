package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"fleetops/internal/domain"
)

const systemPrompt = `You assist a maritime fleet operations team with compliance audits, risk
registers and maintenance scheduling. Answer in plain text. When asked for a
score, state it as "Score: N" with N between 0 and 100. When asked for tasks,
reply with a numbered list, one task per line, hours in parentheses.`

// Gemini forwards assistant requests to Google's Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: 30 * time.Second, log: log}, nil
}

func (g *Gemini) Complete(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return domain.AIResponse{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return domain.AIResponse{}, fmt.Errorf("GenAI %s/%s failed: %w", req.Module, req.Action, err)
	}
	text := responseText(resp)
	g.log.Debug("assistant reply",
		zap.String("module", req.Module),
		zap.String("action", req.Action),
		zap.Duration("took", time.Since(start)),
		zap.Int("chars", len(text)))
	if text == "" {
		return domain.AIResponse{}, fmt.Errorf("GenAI %s/%s returned no text", req.Module, req.Action)
	}
	return domain.AIResponse{Text: text, Kind: domain.KindForAction(req.Action)}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// BuildPrompt renders the module/action/payload triple as a prompt.
func BuildPrompt(req domain.AIRequest) (string, error) {
	if req.Module == "" || req.Action == "" {
		return "", fmt.Errorf("%w: assistant request needs module and action", domain.ErrInvalid)
	}
	payload, err := json.MarshalIndent(req.Payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode assistant payload: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Module: %s\nAction: %s\n", req.Module, req.Action)
	if hint, ok := actionHints[req.Action]; ok {
		b.WriteString(hint)
		b.WriteString("\n")
	}
	b.WriteString("Context:\n")
	b.Write(payload)
	return b.String(), nil
}

var actionHints = map[string]string{
	"evaluate_audit": "Evaluate the audit checklist. Give the compliance score and bullet recommendations.",
	"assign_task":    "Choose the best candidate for the task. Start the reply with the candidate id.",
	"breakdown":      "Break the goal into concrete maintenance tasks.",
}

// Disabled is used when no gateway is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, domain.AIRequest) (domain.AIResponse, error) {
	return domain.AIResponse{}, domain.ErrAssistantUnavailable
}
