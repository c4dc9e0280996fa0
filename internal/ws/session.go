package ws

import (
	"encoding/json"

	"github.com/mavgate/mavgate/internal/telemetry"
	"github.com/mavgate/mavgate/log2"
)

// Client->server request types.
const (
	RequestGetState = "GET_STATE"
	RequestPing     = "PING"
)

type request struct {
	Type string `json:"type"`
}

// session drives one subscriber connection: register with the hub,
// send the initial state snapshot, answer requests until the peer goes
// away, deregister. Errors here never leave the session.
type session struct {
	log   *log2.Log
	hub   *Hub
	cache *telemetry.StateCache
	conn  *wsConn
}

func (s *session) run() {
	s.hub.Register(s.conn)
	defer s.hub.Unregister(s.conn)

	if !s.cache.Empty() {
		s.sendState()
	}

	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debugf("session %s read end err=%v", s.conn.String(), err)
			return
		}
		s.handle(data)
	}
}

func (s *session) handle(data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		s.log.Errorf("session %s invalid json err=%v", s.conn.String(), err)
		return
	}
	switch req.Type {
	case RequestGetState:
		// snapshot is read at response time, not connect time
		s.sendState()
	case RequestPing:
		s.send(telemetry.NewEnvelope(telemetry.TypePong, nil))
	default:
		// deliberately no error reply on the wire
		s.log.Errorf("session %s unknown request type=%q", s.conn.String(), req.Type)
	}
}

func (s *session) sendState() {
	s.send(telemetry.NewEnvelope(telemetry.TypeDroneState, s.cache.Snapshot()))
}

func (s *session) send(env *telemetry.Envelope) {
	payload, err := env.Marshal()
	if err != nil {
		s.log.Errorf("session %s marshal type=%s err=%v", s.conn.String(), env.Type, err)
		return
	}
	if err = s.conn.Send(payload); err != nil {
		s.log.Debugf("session %s send type=%s err=%v", s.conn.String(), env.Type, err)
	}
}
