// Package telemetry holds the gateway's domain core: the outbound JSON
// envelope, the latest-state cache, the record translator with its unit
// normalization table, category filtering and the rate window.
package telemetry

import (
	"encoding/json"
	"time"
)

// Server->client envelope types beyond raw MAVLink category tags.
const (
	TypeDroneState = "DRONE_STATE"
	TypePong       = "PONG"
)

// Envelope is the outbound wire wrapper. Timestamp is wall-clock UTC
// at translation time, not at delivery. Data nil omits the key (PONG);
// an empty non-nil map marshals as "data":{} (empty state snapshot).
type Envelope struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

func NewEnvelope(msgType string, data map[string]interface{}) *Envelope {
	return &Envelope{
		Type:      msgType,
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Data:      data,
	}
}

func (e *Envelope) MarshalJSON() ([]byte, error) {
	if e.Data == nil {
		return json.Marshal(struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
		}{e.Type, e.Timestamp})
	}
	type alias Envelope
	return json.Marshal((*alias)(e))
}

func (e *Envelope) Marshal() ([]byte, error) { return json.Marshal(e) }
