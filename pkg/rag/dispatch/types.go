package dispatch

import (
	"time"

	"ai-casebrief-be/pkg/store"
)

// State is where a session is in its loop.
type State string

const (
	StateAwaitingModel State = "AWAITING_MODEL_TURN"
	StateExecutingTool State = "EXECUTING_TOOL"
	StateTerminated    State = "TERMINATED"
)

type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeTurnBudgetExceeded Outcome = "turn_budget_exceeded"
	OutcomeFatal              Outcome = "fatal_error"
)

type Config struct {
	MaxTurns     int
	ModelTimeout time.Duration
	ToolTimeout  time.Duration
	// PriorLimit caps how many stored transcript entries are replayed on resume.
	PriorLimit int
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = 6
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = 60 * time.Second
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 15 * time.Second
	}
	if c.PriorLimit <= 0 {
		c.PriorLimit = 20
	}
	return c
}

// Input is everything the model sees on its first turn.
type Input struct {
	CaseID            string
	ClientID          string
	Text              string
	Attachments       []string
	ClientData        map[string]interface{}
	History           []string
	OutstandingFields []string
	Prior             []store.TranscriptEntry
}

// Result is the structured answer the model must end with.
type Result struct {
	MissingFields       []string               `json:"missing_fields"`
	Tags                []string               `json:"tags"`
	Narrative           string                 `json:"narrative"`
	ClientData          map[string]interface{} `json:"client_data,omitempty"`
	CompetitiveAnalysis map[string]interface{} `json:"competitive_analysis,omitempty"`
	Citations           []string               `json:"citations,omitempty"`
	FollowUpQuestions   []string               `json:"follow_up_questions,omitempty"`
}

type Report struct {
	Outcome     Outcome
	Result      *Result
	ModelTurns  int
	ToolCalls   int
	Invocations []store.ToolInvocation
	Transcript  []store.TranscriptEntry
}
