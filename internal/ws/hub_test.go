package ws

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mavgate/mavgate/log2"
)

type fakeConn struct {
	name    string
	sent    [][]byte
	sendErr error
	closed  int
}

func (fc *fakeConn) Send(payload []byte) error {
	if fc.sendErr != nil {
		return fc.sendErr
	}
	fc.sent = append(fc.sent, payload)
	return nil
}
func (fc *fakeConn) Close() error   { fc.closed++; return nil }
func (fc *fakeConn) String() string { return fc.name }

func TestHubBroadcast(t *testing.T) {
	t.Parallel()
	h := NewHub(log2.NewTest(t, log2.LDebug))

	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}
	h.Register(c1)
	h.Register(c2)
	assert.Equal(t, 2, h.Len())

	h.Broadcast("HEARTBEAT", []byte(`{"type":"HEARTBEAT"}`))
	assert.Len(t, c1.sent, 1)
	assert.Len(t, c2.sent, 1)
}

func TestHubBroadcastRemovesFailed(t *testing.T) {
	t.Parallel()
	h := NewHub(log2.NewTest(t, log2.LDebug))

	good := &fakeConn{name: "good"}
	bad := &fakeConn{name: "bad", sendErr: errors.New("broken pipe")}
	h.Register(good)
	h.Register(bad)

	h.Broadcast("ATTITUDE", []byte(`{}`))
	assert.Equal(t, 1, h.Len(), "failed subscriber must be dropped")
	assert.Equal(t, 1, bad.closed)
	assert.Len(t, good.sent, 1, "one bad subscriber must not affect others")

	h.Broadcast("ATTITUDE", []byte(`{}`))
	assert.Len(t, good.sent, 2)
}

func TestHubUnregisterIdempotent(t *testing.T) {
	t.Parallel()
	h := NewHub(log2.NewTest(t, log2.LDebug))

	c := &fakeConn{name: "c"}
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)
	assert.Equal(t, 0, h.Len())
}

func TestHubBroadcastEmpty(t *testing.T) {
	t.Parallel()
	h := NewHub(log2.NewTest(t, log2.LDebug))
	h.Broadcast("HEARTBEAT", []byte(`{}`))
	assert.Equal(t, 0, h.Len())
}

func TestHubCloseAll(t *testing.T) {
	t.Parallel()
	h := NewHub(log2.NewTest(t, log2.LDebug))

	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}
	h.Register(c1)
	h.Register(c2)
	h.CloseAll()
	assert.Equal(t, 1, c1.closed)
	assert.Equal(t, 1, c2.closed)
}
