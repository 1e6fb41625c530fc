package store

import "time"

// SourceKind identifies where a candidate came from.
type SourceKind string

const (
	SourceInternal SourceKind = "internal"
	SourceExternal SourceKind = "external"
)

// Priority orders sources for tie-breaking; lower wins.
func (s SourceKind) Priority() int {
	switch s {
	case SourceInternal:
		return 0
	case SourceExternal:
		return 1
	default:
		return 2
	}
}

func (s SourceKind) Valid() bool {
	return s == SourceInternal || s == SourceExternal
}

// CandidateDocument is one raw item returned by a source adapter.
// Values are copied between stages, never shared.
type CandidateDocument struct {
	Source    SourceKind             `json:"source"`
	ID        string                 `json:"id"`
	Title     string                 `json:"title,omitempty"`
	Snippet   string                 `json:"snippet"`
	RawScore  float64                `json:"raw_score"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RankedDocument is a candidate with its composite score in [0,1].
type RankedDocument struct {
	CandidateDocument
	Relevance float64 `json:"relevance"`
	Recency   float64 `json:"recency"`
	Score     float64 `json:"score"`
}

// RankedContext is the budget-bounded evidence handed to reasoning.
type RankedContext struct {
	Query     string           `json:"query"`
	Documents []RankedDocument `json:"documents"`
	Degraded  []SourceKind     `json:"degraded,omitempty"`
}

func (r RankedContext) IDs() []string {
	ids := make([]string, len(r.Documents))
	for i, d := range r.Documents {
		ids[i] = d.ID
	}
	return ids
}
