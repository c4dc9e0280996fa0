// Package mirror republishes every outbound envelope to an MQTT broker,
// one topic per message type. Off by default; strictly best-effort so
// it can never slow down or fail the ingestion path.
package mirror

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	"github.com/mavgate/mavgate/helpers"
	"github.com/mavgate/mavgate/log2"
)

type Config struct { //nolint:maligned
	Enable       bool   `hcl:"enable"`
	Broker       string `hcl:"broker"` // e.g. tcp://host:1883
	TopicPrefix  string `hcl:"topic_prefix"`
	ClientID     string `hcl:"client_id"`
	Username     string `hcl:"username"`
	Password     string `hcl:"password"`
	KeepaliveSec int    `hcl:"keepalive_sec"`
	LogDebug     bool   `hcl:"log_debug"`
}

type Mirror struct {
	log     *log2.Log
	m       mqtt.Client
	prefix  string
	enabled bool
}

// Init fails only with invalid config; broker downtime is not an error,
// paho reconnects in background and publishes are fire-and-forget.
func (mr *Mirror) Init(log *log2.Log, cfg Config) error {
	mr.log = log
	mr.enabled = cfg.Enable
	if !cfg.Enable {
		return nil
	}
	if cfg.Broker == "" {
		return errors.NotValidf("mirror enabled without broker")
	}
	if cfg.LogDebug {
		// scoped to the mirror, the process logger keeps its level
		mr.log = log.Clone(log2.LDebug)
		mr.log.SetPrefix("mirror: ")
	}
	mqtt.ERROR = pahoLogger{mr.log.Errorf}
	mqtt.CRITICAL = pahoLogger{mr.log.Errorf}
	mqtt.WARN = pahoLogger{mr.log.Infof}

	mr.prefix = cfg.TopicPrefix
	if mr.prefix == "" {
		mr.prefix = "mavgate"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("mavgate-%d", time.Now().Unix())
	}
	keepAlive := helpers.IntSecondDefault(cfg.KeepaliveSec, 60*time.Second)

	opt := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(keepAlive).
		SetPingTimeout(keepAlive / 2).
		SetOrderMatters(false).
		SetConnectRetry(true).
		SetConnectRetryInterval(3 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) { mr.log.Infof("mirror mqtt connect") }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) { mr.log.Infof("mirror mqtt disconnect err=%v", err) })
	mr.m = mqtt.NewClient(opt)
	if token := mr.m.Connect(); token.Error() != nil {
		return errors.Annotate(token.Error(), "mirror mqtt connect")
	}
	return nil
}

func (mr *Mirror) Enabled() bool { return mr != nil && mr.enabled }

// Publish sends one serialized envelope to <prefix>/<TYPE>, QOS 0.
func (mr *Mirror) Publish(msgType string, payload []byte) {
	if !mr.Enabled() {
		return
	}
	topic := fmt.Sprintf("%s/%s", mr.prefix, msgType)
	mr.m.Publish(topic, 0, false, payload)
	mr.log.Debugf("mirror publish topic=%s bytes=%d", topic, len(payload))
}

func (mr *Mirror) Close() {
	if mr == nil || mr.m == nil {
		return
	}
	mr.m.Disconnect(250)
}

type pahoLogger struct{ f log2.FmtFunc }

func (pl pahoLogger) Println(v ...interface{})               { pl.f("%s", fmt.Sprintln(v...)) }
func (pl pahoLogger) Printf(format string, v ...interface{}) { pl.f(format, v...) }
