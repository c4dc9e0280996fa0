package mavlink

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		connect string
		expect  gomavlib.EndpointConf
	}{
		{"udpin:0.0.0.0:14551", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14551"}},
		{"udp:0.0.0.0:14551", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14551"}},
		{"udpout:10.0.0.2:14550", gomavlib.EndpointUDPClient{Address: "10.0.0.2:14550"}},
		{"tcpin:0.0.0.0:5760", gomavlib.EndpointTCPServer{Address: "0.0.0.0:5760"}},
		{"tcp:127.0.0.1:5760", gomavlib.EndpointTCPClient{Address: "127.0.0.1:5760"}},
		{"tcpout:127.0.0.1:5760", gomavlib.EndpointTCPClient{Address: "127.0.0.1:5760"}},
		{"serial:/dev/ttyUSB0", gomavlib.EndpointSerial{Device: "/dev/ttyUSB0", Baud: 57600}},
		{"serial:/dev/ttyUSB0:115200", gomavlib.EndpointSerial{Device: "/dev/ttyUSB0", Baud: 115200}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.connect, func(t *testing.T) {
			t.Parallel()
			ep, err := ParseEndpoint(c.connect)
			require.NoError(t, err)
			assert.Equal(t, c.expect, ep)
		})
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	t.Parallel()

	for _, connect := range []string{
		"",
		"udpin",
		"udpin:",
		"carrier-pigeon:10.0.0.1:14550",
		"serial:/dev/ttyUSB0:fast",
	} {
		_, err := ParseEndpoint(connect)
		assert.Error(t, err, "connect=%s", connect)
	}
}
