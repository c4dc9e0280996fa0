package mavlink

import (
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/juju/errors"

	"github.com/mavgate/mavgate/log2"
)

type NodeConfig struct {
	Connect     string // pymavlink-style connection string
	SystemID    byte   // our identity on the link, ground station = 255
	ComponentID byte
	Log         *log2.Log
}

// nodeSource adapts a gomavlib node to the Source contract. gomavlib
// delivers readiness on a channel, so Recv blocks on that channel with
// a timer instead of polling the socket.
type nodeSource struct {
	log  *log2.Log
	node *gomavlib.Node
}

// Connect establishes the MAVLink endpoint. Failure here is a fatal
// startup condition for the caller, there is no retry inside.
func Connect(cfg NodeConfig) (Source, error) {
	ep, err := ParseEndpoint(cfg.Connect)
	if err != nil {
		return nil, errors.Annotate(err, "mavlink endpoint")
	}

	node := &gomavlib.Node{
		Endpoints:        []gomavlib.EndpointConf{ep},
		Dialect:          common.Dialect,
		OutVersion:       gomavlib.V2,
		OutSystemID:      cfg.SystemID,
		OutComponentID:   cfg.ComponentID,
		HeartbeatDisable: true, // read-only node, command uplink is out of scope
	}
	if err = node.Initialize(); err != nil {
		return nil, errors.Annotatef(err, "mavlink connect=%s", cfg.Connect)
	}
	cfg.Log.Infof("mavlink connected endpoint=%s system=%d component=%d",
		cfg.Connect, cfg.SystemID, cfg.ComponentID)
	return &nodeSource{log: cfg.Log, node: node}, nil
}

func (ns *nodeSource) Recv(timeout time.Duration) (*Decoded, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case evt, ok := <-ns.node.Events():
			if !ok {
				return nil, ErrSourceClosed
			}
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				return &Decoded{
					Type:        MessageName(e.Message()),
					SystemID:    e.SystemID(),
					ComponentID: e.ComponentID(),
					Fields:      MessageFields(e.Message()),
				}, nil
			case *gomavlib.EventParseError:
				return nil, errors.Annotate(e.Error, "mavlink frame")
			case *gomavlib.EventChannelOpen:
				ns.log.Debugf("mavlink channel open %v", e.Channel)
			case *gomavlib.EventChannelClose:
				ns.log.Debugf("mavlink channel close %v", e.Channel)
			}
			// non-frame event, keep waiting within the same deadline

		case <-timer.C:
			return nil, errRecvTimeout(timeout)
		}
	}
}

func (ns *nodeSource) Close() error {
	ns.node.Close()
	return nil
}
