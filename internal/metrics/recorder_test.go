package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderFlushOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	New("imagegen").
		Dimension("template", "hero-banner").
		Dimension("outcome", "ok").
		Duration("duration", 1500*time.Millisecond).
		Count("polls").
		Count("polls").
		Metric("downloaded", 2048, UnitBytes).
		Metric("ratio", 0.5, UnitNone).
		Flush(logger)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), buf.String())

	assert.Equal(t, "imagegen", doc["namespace"])
	assert.Equal(t, "Run metrics", doc["message"])

	dims := doc["dimensions"].(map[string]any)
	assert.Equal(t, "hero-banner", dims["template"])
	assert.Equal(t, "ok", dims["outcome"])

	values := doc["metrics"].(map[string]any)
	assert.Equal(t, float64(1500), values["duration_ms"])
	assert.Equal(t, float64(2), values["polls_count"])
	assert.Equal(t, float64(2048), values["downloaded_bytes"])
	assert.Equal(t, 0.5, values["ratio"])
}

func TestRecorderFlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	New("imagegen").Dimension("template", "x").Flush(zerolog.New(&buf))
	assert.Zero(t, buf.Len())
}

func TestRecorderAddKeepsFirstUnit(t *testing.T) {
	r := New("imagegen").
		Add("written", 10, UnitBytes).
		Add("written", 5, UnitCount)

	v, ok := r.Value("written")
	require.True(t, ok)
	assert.Equal(t, float64(15), v)
	assert.Equal(t, UnitBytes, r.metrics["written"].unit)

	_, ok = r.Value("missing")
	assert.False(t, ok)
}
