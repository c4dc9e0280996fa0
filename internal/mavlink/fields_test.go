package mavlink

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg    message.Message
		expect string
	}{
		{&common.MessageHeartbeat{}, "HEARTBEAT"},
		{&common.MessageGpsRawInt{}, "GPS_RAW_INT"},
		{&common.MessageGlobalPositionInt{}, "GLOBAL_POSITION_INT"},
		{&common.MessageAttitude{}, "ATTITUDE"},
		{&common.MessageBatteryStatus{}, "BATTERY_STATUS"},
		{&common.MessageVfrHud{}, "VFR_HUD"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, MessageName(c.msg))
	}
}

func TestCamelToSnake(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Hdg":            "hdg",
		"Lat":            "lat",
		"RelativeAlt":    "relative_alt",
		"TimeBootMs":     "time_boot_ms",
		"GpsRawInt":      "gps_raw_int",
		"MavlinkVersion": "mavlink_version",
		"CurrentBattery": "current_battery",
		"SystemStatus":   "system_status",
	}
	for in, expect := range cases {
		assert.Equal(t, expect, camelToSnake(in), "input=%s", in)
	}
}

func TestMessageFields(t *testing.T) {
	t.Parallel()

	msg := &common.MessageGlobalPositionInt{
		TimeBootMs:  123456,
		Lat:         473977420,
		Lon:         85455940,
		Alt:         488000,
		RelativeAlt: 10500,
		Vx:          120,
		Vy:          -50,
		Vz:          0,
		Hdg:         9000,
	}
	fields := MessageFields(msg)
	require.NotNil(t, fields)

	assert.EqualValues(t, 473977420, fields["lat"])
	assert.EqualValues(t, 85455940, fields["lon"])
	assert.EqualValues(t, 488000, fields["alt"])
	assert.EqualValues(t, 10500, fields["relative_alt"])
	assert.EqualValues(t, 120, fields["vx"])
	assert.EqualValues(t, -50, fields["vy"])
	assert.EqualValues(t, 0, fields["vz"])
	assert.EqualValues(t, 9000, fields["hdg"])
	assert.EqualValues(t, 123456, fields["time_boot_ms"])
}

func TestMessageFieldsArray(t *testing.T) {
	t.Parallel()

	msg := &common.MessageBatteryStatus{
		Voltages:         [10]uint16{12587, 12590},
		CurrentBattery:   1520,
		BatteryRemaining: 87,
	}
	fields := MessageFields(msg)
	require.NotNil(t, fields)

	vs, ok := fields["voltages"].([]interface{})
	require.True(t, ok, "voltages must flatten to a slice")
	require.Len(t, vs, 10)
	assert.EqualValues(t, 12587, vs[0])
	assert.EqualValues(t, 1520, fields["current_battery"])
	assert.EqualValues(t, 87, fields["battery_remaining"])
}
