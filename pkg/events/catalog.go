package events

import "time"

const (
	TypeCaseCreated         = "CASE_CREATED"
	TypeCaseTransitioned    = "CASE_TRANSITIONED"
	TypeCaseReviewRequested = "CASE_REVIEW_REQUESTED"
	TypeCaseReminder        = "CASE_REMINDER"
	TypeCaseEscalated       = "CASE_ESCALATED"
	TypeBriefGenerated      = "BRIEF_GENERATED"

	// Inbound from the chat transport.
	TypeInboundMessage = "INBOUND_MESSAGE"
	TypeInboundAction  = "INBOUND_ACTION"
)

func newEvent(t string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: t, Data: data, OccurredAt: time.Now().UTC()}
}

func CaseCreated(caseID, clientID string) Event {
	return newEvent(TypeCaseCreated, map[string]interface{}{
		"case_id":   caseID,
		"client_id": clientID,
	})
}

func CaseTransitioned(caseID, from, to, trigger, actor string, version int64) Event {
	return newEvent(TypeCaseTransitioned, map[string]interface{}{
		"case_id": caseID,
		"from":    from,
		"to":      to,
		"trigger": trigger,
		"actor":   actor,
		"version": version,
	})
}

// CaseReviewRequested asks the chat transport to show the case to reviewers.
func CaseReviewRequested(caseID, channelID, threadTs string, missing, tags []string, narrative string) Event {
	return newEvent(TypeCaseReviewRequested, map[string]interface{}{
		"case_id":        caseID,
		"channel_id":     channelID,
		"thread_ts":      threadTs,
		"missing_fields": missing,
		"tags":           tags,
		"narrative":      narrative,
	})
}

func CaseReminder(caseID, actor string) Event {
	return newEvent(TypeCaseReminder, map[string]interface{}{
		"case_id": caseID,
		"actor":   actor,
	})
}

func CaseEscalated(caseID, reason string) Event {
	return newEvent(TypeCaseEscalated, map[string]interface{}{
		"case_id": caseID,
		"reason":  reason,
	})
}

func BriefGenerated(caseID, audience, reference string) Event {
	return newEvent(TypeBriefGenerated, map[string]interface{}{
		"case_id":            caseID,
		"audience":           audience,
		"document_reference": reference,
	})
}
