package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn wraps a gorilla connection with a write mutex: gorilla allows
// only one concurrent writer, while both the hub (broadcasts) and the
// session (replies) write here. Serialized writes also keep
// per-subscriber delivery order equal to submission order.
type wsConn struct {
	c            *websocket.Conn
	writeTimeout time.Duration
	wmu          sync.Mutex
}

var _ Conn = &wsConn{}

func newWsConn(c *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{c: c, writeTimeout: writeTimeout}
}

func (w *wsConn) Send(payload []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if w.writeTimeout > 0 {
		_ = w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.c.WriteMessage(websocket.TextMessage, payload)
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.c.ReadMessage()
	return data, err
}

func (w *wsConn) Close() error { return w.c.Close() }

func (w *wsConn) String() string { return w.c.RemoteAddr().String() }
