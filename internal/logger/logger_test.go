package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("shouting")
	assert.Equal(t, "info", log.GetLevel().String())
}

func TestCtx_AttachesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter("debug", &buf)

	ctx := WithCorrelationID(context.Background(), "abc-123")
	ctxLog := Ctx(ctx, base)
	ctxLog.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["correlation_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestCorrelationIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.Len(t, NewCorrelationID(), 36)
}
