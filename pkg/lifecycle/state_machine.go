package lifecycle

import (
	"fmt"
	"sort"

	"ai-casebrief-be/internal/pkg/apperr"
)

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCorrected      Status = "CORRECTED"
	StatusBriefGenerated Status = "BRIEF_GENERATED"
	StatusClosed         Status = "CLOSED"
	StatusRejected       Status = "REJECTED"
)

// Trigger is anything that can move a case: a human action or a system event.
type Trigger string

const (
	ActionConfirm       Trigger = "confirm_correct"
	ActionAdjust        Trigger = "adjust_conditions"
	ActionCompleteData  Trigger = "complete_data"
	ActionPushToPlanner Trigger = "push_to_planner"
	ActionRemindLater   Trigger = "remind_later"
	ActionReject        Trigger = "reject"
	ActionClose         Trigger = "close"

	TriggerDelivered       Trigger = "delivered_for_review"
	TriggerRefreshed       Trigger = "reasoning_refreshed"
	TriggerBriefsGenerated Trigger = "briefs_generated"
)

var humanActions = map[Trigger]struct{}{
	ActionConfirm:       {},
	ActionAdjust:        {},
	ActionCompleteData:  {},
	ActionPushToPlanner: {},
	ActionRemindLater:   {},
	ActionReject:        {},
	ActionClose:         {},
}

// transitions is the whole state machine. Anything not listed is illegal.
var transitions = map[Status]map[Trigger]Status{
	StatusCreated: {
		TriggerDelivered: StatusUnderReview,
	},
	StatusUnderReview: {
		ActionConfirm:      StatusConfirmed,
		ActionAdjust:       StatusCorrected,
		ActionCompleteData: StatusCorrected,
		ActionRemindLater:  StatusUnderReview,
		ActionReject:       StatusRejected,
		TriggerRefreshed:   StatusUnderReview,
	},
	StatusCorrected: {
		TriggerDelivered:  StatusUnderReview,
		ActionConfirm:     StatusConfirmed,
		ActionRemindLater: StatusCorrected,
	},
	StatusConfirmed: {
		TriggerBriefsGenerated: StatusBriefGenerated,
		ActionPushToPlanner:    StatusConfirmed,
	},
	StatusBriefGenerated: {
		ActionPushToPlanner: StatusBriefGenerated,
		ActionClose:         StatusClosed,
	},
	StatusClosed:   {},
	StatusRejected: {},
}

// Next returns the status reached by applying t in from.
func Next(from Status, t Trigger) (Status, error) {
	edges, ok := transitions[from]
	if !ok {
		return "", apperr.Validation("lifecycle.next", fmt.Sprintf("unknown status %q", from))
	}
	to, ok := edges[t]
	if !ok {
		return "", apperr.Conflict("lifecycle.next", fmt.Errorf("%w: %s from %s", apperr.ErrIllegalTransition, t, from))
	}
	return to, nil
}

func Allowed(from Status, t Trigger) bool {
	_, err := Next(from, t)
	return err == nil
}

// ParseAction accepts only the human action kinds.
func ParseAction(s string) (Trigger, error) {
	t := Trigger(s)
	if _, ok := humanActions[t]; !ok {
		return "", apperr.Validation("lifecycle.action", fmt.Sprintf("unknown action kind %q", s))
	}
	return t, nil
}

func (t Trigger) IsHumanAction() bool {
	_, ok := humanActions[t]
	return ok
}

// IsCorrection reports whether t edits the case data under review.
func (t Trigger) IsCorrection() bool {
	return t == ActionAdjust || t == ActionCompleteData
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func Statuses() []Status {
	out := make([]Status, 0, len(transitions))
	for s := range transitions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Triggers lists every trigger referenced by the table.
func Triggers() []Trigger {
	seen := map[Trigger]struct{}{}
	for _, edges := range transitions {
		for t := range edges {
			seen[t] = struct{}{}
		}
	}
	out := make([]Trigger, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
