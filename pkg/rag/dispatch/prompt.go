package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-casebrief-be/pkg/rag/tools"
)

const systemPromptHeader = `You analyze incoming client inquiries and prepare them for human review.
Work step by step. On every turn reply with exactly one JSON object and nothing else.

To call a tool:
{"tool": "<tool name>", "input": { ... }}

When you have enough information:
{"final": {"missing_fields": [...], "tags": [...], "narrative": "...", "client_data": {...},
 "competitive_analysis": {...}, "citations": [...], "follow_up_questions": [...]}}

Only cite evidence identifiers that a tool returned. Tools:
`

func systemPrompt() string {
	specs, _ := json.MarshalIndent(tools.Specs(), "", "  ")
	return systemPromptHeader + string(specs)
}

func initialMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s\nClient: %s\n\nMessage:\n%s\n", in.CaseID, in.ClientID, in.Text)

	if len(in.Attachments) > 0 {
		fmt.Fprintf(&b, "\nAttachments:\n- %s\n", strings.Join(in.Attachments, "\n- "))
	}
	if len(in.ClientData) > 0 {
		data, _ := json.Marshal(in.ClientData)
		fmt.Fprintf(&b, "\nKnown client data: %s\n", data)
	}
	if len(in.OutstandingFields) > 0 {
		fmt.Fprintf(&b, "\nStill outstanding from the last review: %s\n", strings.Join(in.OutstandingFields, ", "))
	}
	if len(in.History) > 0 {
		fmt.Fprintf(&b, "\nRecent cases for this client:\n- %s\n", strings.Join(in.History, "\n- "))
	}
	return b.String()
}

func observationMessage(tool, content string) string {
	return fmt.Sprintf("Observation from %s:\n%s", tool, content)
}

func errorObservation(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}
