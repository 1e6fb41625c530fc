package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeKeepsTypeAndTime(t *testing.T) {
	e := CaseTransitioned("C1:1.0", "UNDER_REVIEW", "CONFIRMED", "confirm_correct", "U1", 3)
	raw, err := Marshal(e)
	require.NoError(t, err)

	got, err := Unmarshal(raw, "ignored")
	require.NoError(t, err)
	assert.Equal(t, TypeCaseTransitioned, got.EventType())
	assert.True(t, e.Timestamp().Equal(got.Timestamp()))
	assert.Equal(t, "CONFIRMED", got.Payload()["to"])
	assert.Equal(t, float64(3), got.Payload()["version"])
}

func TestUnmarshalBarePayload(t *testing.T) {
	got, err := Unmarshal([]byte(`{"text":"need a venue","thread_ts":"1.0"}`), TypeInboundMessage)
	require.NoError(t, err)
	assert.Equal(t, TypeInboundMessage, got.EventType())
	assert.Equal(t, "need a venue", got.Payload()["text"])
	assert.False(t, got.Timestamp().IsZero())
}
