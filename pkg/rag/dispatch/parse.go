package dispatch

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoDirective = errors.New(`reply must be one JSON object with either "tool" or "final"`)

type modelReply struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
	Final *Result         `json:"final"`
}

// parseReply accepts the first {...} span of the reply so that models which
// wrap JSON in prose or code fences still work.
func parseReply(raw string) (*modelReply, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, errNoDirective
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return nil, errNoDirective
	}
	if reply.Final == nil && strings.TrimSpace(reply.Tool) == "" {
		return nil, errNoDirective
	}
	return &reply, nil
}

func normalizeResult(r *Result) *Result {
	out := *r
	out.MissingFields = uniqueTrimmed(r.MissingFields)
	out.Tags = uniqueTrimmed(r.Tags)
	out.Citations = uniqueTrimmed(r.Citations)
	out.FollowUpQuestions = uniqueTrimmed(r.FollowUpQuestions)
	out.Narrative = strings.TrimSpace(r.Narrative)
	return &out
}

func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
