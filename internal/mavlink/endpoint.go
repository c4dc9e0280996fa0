package mavlink

import (
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/juju/errors"
)

// ParseEndpoint accepts pymavlink-style connection strings:
// udpin:host:port, udpout:host:port, tcpin:host:port, tcp:host:port,
// serial:device or serial:device:baud.
func ParseEndpoint(connect string) (gomavlib.EndpointConf, error) {
	scheme, rest, ok := strings.Cut(connect, ":")
	if !ok || rest == "" {
		return nil, errors.NotValidf("connection string '%s'", connect)
	}

	switch scheme {
	case "udpin", "udp":
		return gomavlib.EndpointUDPServer{Address: rest}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: rest}, nil
	case "tcpin":
		return gomavlib.EndpointTCPServer{Address: rest}, nil
	case "tcp", "tcpout":
		return gomavlib.EndpointTCPClient{Address: rest}, nil
	case "serial":
		device, baudStr, hasBaud := strings.Cut(rest, ":")
		baud := 57600
		if hasBaud {
			var err error
			if baud, err = strconv.Atoi(baudStr); err != nil {
				return nil, errors.NotValidf("serial baud '%s'", baudStr)
			}
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	}
	return nil, errors.NotValidf("connection scheme '%s'", scheme)
}
