package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("case.submit", "text is required"), KindValidation},
		{"wrapped conflict", fmt.Errorf("apply: %w", Conflict("case.update", ErrVersionConflict)), KindConflict},
		{"bare sentinel", fmt.Errorf("x: %w", ErrIllegalTransition), KindConflict},
		{"turn budget", TurnBudget("dispatch.run", 8), KindTurnBudgetExceeded},
		{"not found sentinel", ErrCaseNotFound, KindNotFound},
		{"unclassified", errors.New("boom"), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorUnwrapKeepsSentinel(t *testing.T) {
	err := Fatal("dispatch.turn", fmt.Errorf("ollama: %w", ErrBackendUnauthorized))

	assert.True(t, errors.Is(err, ErrBackendUnauthorized))
	assert.True(t, IsKind(err, KindFatal))
	assert.Contains(t, err.Error(), "dispatch.turn")
}
