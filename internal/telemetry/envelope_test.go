package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeMarshal(t *testing.T) {
	t.Parallel()

	env := NewEnvelope("HEARTBEAT", map[string]interface{}{"base_mode": 81})
	b, err := env.Marshal()
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "HEARTBEAT", out["type"])
	assert.Equal(t, map[string]interface{}{"base_mode": 81.0}, out["data"])

	ts, err := time.Parse(timestampLayout, out["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, 5*time.Second)
}

func TestEnvelopeOmitsNilData(t *testing.T) {
	t.Parallel()

	b, err := NewEnvelope(TypePong, nil).Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"data"`)
}

func TestEnvelopeEmptyDataObject(t *testing.T) {
	t.Parallel()

	b, err := NewEnvelope(TypeDroneState, map[string]interface{}{}).Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":{}`)
}
