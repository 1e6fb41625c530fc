package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("CASE", "case created", map[string]interface{}{"case_id": "C1:1"})
	l.Error("CASE", "update failed", map[string]interface{}{"error": "boom"})
	l.Debug("CASE", "no details", nil)

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "case created", entries[0].Message)
	assert.Equal(t, "CASE", entries[0].ContextMap()["module"])
	assert.Contains(t, entries[1].ContextMap(), "error_ref")
	assert.NotNil(t, entries[2].ContextMap()["details"])
}
