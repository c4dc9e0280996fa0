package mirror

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavgate/mavgate/log2"
)

func TestMirrorDisabled(t *testing.T) {
	t.Parallel()

	mr := &Mirror{}
	assert.NoError(t, mr.Init(log2.NewTest(t, log2.LDebug), Config{}))
	assert.False(t, mr.Enabled())
	mr.Publish("HEARTBEAT", []byte(`{}`)) // must be a no-op
	mr.Close()

	var nilMirror *Mirror
	assert.False(t, nilMirror.Enabled())
	nilMirror.Publish("HEARTBEAT", []byte(`{}`))
	nilMirror.Close()
}

func TestMirrorDebugLoggerScoped(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	base := log2.NewWriter(buf, log2.LError)
	mr := &Mirror{}
	require.NoError(t, mr.Init(base, Config{
		Enable:   true,
		Broker:   "tcp://127.0.0.1:1",
		LogDebug: true,
	}))
	defer mr.Close()
	assert.False(t, base.Enabled(log2.LDebug), "mirror debug must not raise the process log level")
}

func TestMirrorEnabledWithoutBroker(t *testing.T) {
	t.Parallel()

	mr := &Mirror{}
	err := mr.Init(log2.NewTest(t, log2.LDebug), Config{Enable: true})
	assert.Error(t, err)
}
