package brief

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
)

type Audience string

const (
	AudiencePlanner Audience = "planner"
	AudienceManager Audience = "manager"
)

func ParseAudience(s string) (Audience, error) {
	switch a := Audience(strings.ToLower(strings.TrimSpace(s))); a {
	case AudiencePlanner, AudienceManager:
		return a, nil
	}
	return "", apperr.Validation("brief.audience", fmt.Sprintf("unknown audience %q", s))
}

func ParseAudiences(list []string) ([]Audience, error) {
	out := make([]Audience, 0, len(list))
	seen := map[Audience]bool{}
	for _, s := range list {
		a, err := ParseAudience(s)
		if err != nil {
			return nil, err
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// Snapshot is the case state a brief is rendered from.
type Snapshot struct {
	CaseID        string
	ClientID      string
	ClientData    map[string]interface{}
	Tags          []string
	MissingFields []string
	Narrative     string
	Citations     []string
}

func SnapshotOf(c *entity.Case) Snapshot {
	cp := c.Clone()
	return Snapshot{
		CaseID:        cp.CaseId,
		ClientID:      cp.ClientId,
		ClientData:    cp.ClientData,
		Tags:          cp.Tags,
		MissingFields: cp.MissingFields,
		Narrative:     cp.Narrative,
		Citations:     cp.Citations,
	}
}

type Section struct {
	Heading string
	Lines   []string
}

// Content is the audience-specific structure handed to a Renderer.
type Content struct {
	CaseID      string
	ClientID    string
	Audience    Audience
	Title       string
	Priority    int
	Sections    []Section
	GeneratedAt time.Time
}

// BuildContent shapes a snapshot for one audience. required lists the fields
// that count towards the planner priority score.
func BuildContent(s Snapshot, a Audience, required []string, now time.Time) Content {
	c := Content{
		CaseID:      s.CaseID,
		ClientID:    s.ClientID,
		Audience:    a,
		GeneratedAt: now.UTC(),
	}
	switch a {
	case AudiencePlanner:
		c.Title = fmt.Sprintf("Planner brief: %s", s.ClientID)
		c.Priority = PriorityScore(s, required)
		c.Sections = []Section{
			{Heading: "Event details", Lines: fieldLines(s.ClientData)},
			{Heading: "Suggested tags", Lines: orNone(s.Tags)},
			{Heading: "Missing information", Lines: orNone(s.MissingFields)},
		}
	case AudienceManager:
		c.Title = fmt.Sprintf("Manager summary: %s", s.ClientID)
		summary := strings.TrimSpace(s.Narrative)
		if summary == "" {
			summary = "No narrative recorded."
		}
		c.Sections = []Section{
			{Heading: "Executive summary", Lines: []string{summary}},
			{Heading: "Risks", Lines: risks(s.MissingFields)},
			{Heading: "Competitive analysis", Lines: orNone(competitive(s.ClientData))},
			{Heading: "Tags", Lines: orNone(s.Tags)},
		}
	}
	if len(s.Citations) > 0 {
		c.Sections = append(c.Sections, Section{Heading: "Sources", Lines: s.Citations})
	}
	return c
}

// PriorityScore is the share of required fields that are known, 0 to 100.
func PriorityScore(s Snapshot, required []string) int {
	if len(required) == 0 {
		return 100
	}
	missing := map[string]bool{}
	for _, f := range s.MissingFields {
		missing[strings.ToLower(f)] = true
	}
	known := 0
	for _, f := range required {
		v, ok := s.ClientData[f]
		if ok && !missing[strings.ToLower(f)] && fmt.Sprint(v) != "" {
			known++
		}
	}
	return int(math.Round(float64(known) * 100 / float64(len(required))))
}

func fieldLines(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "competitive_analysis" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, data[k]))
	}
	return orNone(lines)
}

func risks(missing []string) []string {
	if len(missing) == 0 {
		return []string{"No open data gaps."}
	}
	out := make([]string, len(missing))
	for i, f := range missing {
		out[i] = fmt.Sprintf("%s is still unknown and may change scope or cost", f)
	}
	return out
}

func competitive(data map[string]interface{}) []string {
	switch v := data["competitive_analysis"].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{v}
		}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func orNone(lines []string) []string {
	if len(lines) == 0 {
		return []string{"None"}
	}
	return lines
}
