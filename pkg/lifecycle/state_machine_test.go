package lifecycle

import (
	"errors"
	"math/rand"
	"testing"

	"ai-casebrief-be/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    Status
		trigger Trigger
		want    Status
		legal   bool
	}{
		{StatusCreated, TriggerDelivered, StatusUnderReview, true},
		{StatusUnderReview, ActionConfirm, StatusConfirmed, true},
		{StatusUnderReview, ActionAdjust, StatusCorrected, true},
		{StatusUnderReview, ActionCompleteData, StatusCorrected, true},
		{StatusUnderReview, ActionRemindLater, StatusUnderReview, true},
		{StatusUnderReview, ActionReject, StatusRejected, true},
		{StatusCorrected, TriggerDelivered, StatusUnderReview, true},
		{StatusCorrected, ActionConfirm, StatusConfirmed, true},
		{StatusConfirmed, TriggerBriefsGenerated, StatusBriefGenerated, true},
		{StatusConfirmed, ActionPushToPlanner, StatusConfirmed, true},
		{StatusBriefGenerated, ActionClose, StatusClosed, true},

		{StatusCreated, ActionConfirm, "", false},
		{StatusConfirmed, ActionConfirm, "", false},
		{StatusConfirmed, ActionAdjust, "", false},
		{StatusBriefGenerated, ActionReject, "", false},
		{StatusClosed, ActionPushToPlanner, "", false},
		{StatusRejected, ActionConfirm, "", false},
		{StatusCorrected, ActionAdjust, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			got, err := Next(tt.from, tt.trigger)
			if !tt.legal {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperr.ErrIllegalTransition))
				assert.True(t, apperr.IsKind(err, apperr.KindConflict))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownStatusIsValidationError(t *testing.T) {
	_, err := Next("ARCHIVED", ActionConfirm)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("confirm_correct")
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, a)

	_, err = ParseAction("delivered_for_review")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = ParseAction("approve")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusClosed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusBriefGenerated.Terminal())
}

// Random walks only ever follow table edges and never leave a terminal state.
func TestRandomWalkFollowsTable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	triggers := Triggers()

	for walk := 0; walk < 200; walk++ {
		status := StatusCreated
		for step := 0; step < 20; step++ {
			trig := triggers[rng.Intn(len(triggers))]
			next, err := Next(status, trig)
			if err != nil {
				assert.False(t, Allowed(status, trig))
				continue
			}
			assert.Equal(t, transitions[status][trig], next)
			assert.False(t, status.Terminal())
			status = next
		}
	}
}

func TestEveryStatusReachableFromCreated(t *testing.T) {
	reached := map[Status]bool{StatusCreated: true}
	queue := []Status{StatusCreated}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, to := range transitions[s] {
			if !reached[to] {
				reached[to] = true
				queue = append(queue, to)
			}
		}
	}
	for _, s := range Statuses() {
		assert.True(t, reached[s], s)
	}
}
