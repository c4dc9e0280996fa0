package state

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mavgate/mavgate/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty-defaults", "", func(t testing.TB, c *Config) {
			assert.Equal(t, "udpin:0.0.0.0:14551", c.Mavlink.Connect)
			assert.Equal(t, 255, c.Mavlink.SystemId)
			assert.Equal(t, 500, c.Mavlink.RateLimit)
			assert.Equal(t, "0.0.0.0:8765", c.ListenAddr())
		}, ""},

		{"mavlink",
			`mavlink { connect = "tcp:10.0.0.7:5760" allow = ["HEARTBEAT", "ATTITUDE"] rate_limit = 0 }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "tcp:10.0.0.7:5760", c.Mavlink.Connect)
				assert.Equal(t, []string{"HEARTBEAT", "ATTITUDE"}, c.Mavlink.Allow)
				assert.Equal(t, 0, c.Mavlink.RateLimit)
			}, ""},

		{"ws",
			`ws { listen_host = "127.0.0.1" listen_port = 9000 }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "127.0.0.1:9000", c.ListenAddr())
			}, ""},

		{"mirror",
			`mirror { enable = true broker = "tcp://localhost:1883" topic_prefix = "drone" }`,
			func(t testing.TB, c *Config) {
				assert.True(t, c.Mirror.Enable)
				assert.Equal(t, "tcp://localhost:1883", c.Mirror.Broker)
				assert.Equal(t, "drone", c.Mirror.TopicPrefix)
			}, ""},

		{"include-overwrites", `
mavlink { connect = "udpin:0.0.0.0:1" }
include "port-seven" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "udpin:0.0.0.0:7", c.Mavlink.Connect)
			}, ""},

		{"include-optional", `
include "port-seven" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "udpin:0.0.0.0:7", c.Mavlink.Connect)
			}, ""},

		{"include-required-missing", `include "non-exist" {}`, nil, "not found"},
		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"port-seven":   `mavlink { connect = "udpin:0.0.0.0:7" }`,
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if err == nil {
				err = cfg.Validate()
			}
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				if err == nil || !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		t.Run(c.name, mkCheck(c))
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"MAVLINK_CONNECTION": "udpout:gcs:14550",
		"WEBSOCKET_HOST":     "127.0.0.1",
		"WEBSOCKET_PORT":     "9900",
		"LOG_LEVEL":          "DEBUG",
		"MESSAGE_FILTER":     "heartbeat, attitude",
		"MESSAGE_IGNORE":     "VFR_HUD",
		"MAX_MESSAGE_RATE":   "100",
		"MQTT_BROKER":        "tcp://broker:1883",
	}
	c := NewConfig()
	assert.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "udpout:gcs:14550", c.Mavlink.Connect)
	assert.Equal(t, "127.0.0.1:9900", c.ListenAddr())
	assert.True(t, c.Log.Debug)
	assert.Equal(t, []string{"HEARTBEAT", "ATTITUDE"}, c.Mavlink.Allow, "filter lists are uppercased")
	assert.Equal(t, []string{"VFR_HUD"}, c.Mavlink.Deny)
	assert.Equal(t, 100, c.Mavlink.RateLimit)
	assert.True(t, c.Mirror.Enable, "MQTT_BROKER implies mirror enable")
	assert.Equal(t, "tcp://broker:1883", c.Mirror.Broker)
}

func TestApplyEnvEmptyKeepsConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	assert.NoError(t, c.ApplyEnv(func(string) string { return "" }))
	assert.Equal(t, "udpin:0.0.0.0:14551", c.Mavlink.Connect)
	assert.Equal(t, 500, c.Mavlink.RateLimit)
	assert.False(t, c.Mirror.Enable)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	err := c.ApplyEnv(func(k string) string {
		if k == "WEBSOCKET_PORT" {
			return "not-a-port"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	assert.NoError(t, c.Validate())

	c.Mavlink.Connect = ""
	c.WS.ListenPort = -1
	c.Mavlink.SystemId = 1000
	err := c.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "mavlink.connect")
	}
}
