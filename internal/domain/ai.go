package domain

// AIRequest is an assistant call scoped by module and action.
type AIRequest struct {
	Module  string         `json:"module"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
}

type AIResponseKind string

const (
	KindAnalysis   AIResponseKind = "analysis"
	KindAssignment AIResponseKind = "assignment"
	KindPlan       AIResponseKind = "plan"
	KindText       AIResponseKind = "text"
)

type AIResponse struct {
	Text string         `json:"text"`
	Kind AIResponseKind `json:"kind"`
}

// KindForAction maps an action name to the response kind callers expect.
func KindForAction(action string) AIResponseKind {
	switch action {
	case "evaluate_audit", "analyze_risk":
		return KindAnalysis
	case "assign_task":
		return KindAssignment
	case "breakdown", "plan":
		return KindPlan
	}
	return KindText
}
