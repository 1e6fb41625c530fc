package mapper

import (
	"testing"
	"time"

	"ai-casebrief-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestCaseMapperDoesNotShareSlices(t *testing.T) {
	m := NewCaseMapper()
	e := &entity.Case{
		CaseId:     "C1:100.1",
		ClientId:   "ABC Corp",
		Status:     "UNDER_REVIEW",
		ClientData: map[string]interface{}{"budget": "10k"},
		Tags:       []string{"urgent"},
		Version:    3,
		UpdatedAt:  time.Unix(100, 0),
	}

	back := m.ToEntity(m.ToModel(e))
	back.Tags[0] = "changed"
	back.ClientData["budget"] = "20k"

	assert.Equal(t, "urgent", e.Tags[0])
	assert.Equal(t, "10k", e.ClientData["budget"])
	assert.Equal(t, int64(3), back.Version)
	assert.Equal(t, "ABC Corp", back.ClientId)
}
