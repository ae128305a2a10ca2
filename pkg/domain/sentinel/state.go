package sentinel

import "time"

// AgentState drives the status indicator of a session.
type AgentState string

const (
	AgentIdle       AgentState = "IDLE"
	AgentBreathe    AgentState = "BREATHE"
	AgentRapidPulse AgentState = "RAPID_PULSE"
	AgentStrobeRed  AgentState = "STROBE_RED"
	AgentSuccess    AgentState = "SUCCESS"
)

// Thought is one entry in the reasoning stream.
type Thought struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

// TokenUsage tracks context tokens spent against a budget.
type TokenUsage struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// SystemState is a point-in-time snapshot of a session.
type SystemState struct {
	AgentState     AgentState      `json:"agent_state"`
	Thoughts       []Thought       `json:"thoughts"`
	TokenUsage     TokenUsage      `json:"token_usage"`
	RepoMap        *RepoMap        `json:"repo_map"`
	DeploymentPlan *DeploymentPlan `json:"deployment_plan"`
	PendingFixes   []FixProposal   `json:"pending_fixes"`
	FixHistory     []FixProposal   `json:"fix_history"`
	SignatureCount int             `json:"signature_count"`
	LastError      string          `json:"last_error,omitempty"`
}
