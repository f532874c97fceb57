// Package mirror republishes sent telemetry to an MQTT broker.
package mirror

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/devsim/helpers"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	tele_config "github.com/temoto/devsim/tele/config"
)

const (
	statusOffline = 0x00
	statusOnline  = 0x01
)

type Topics struct {
	Prefix    string
	Connect   string
	Telemetry string
}

func NewTopics(deviceID string) Topics {
	prefix := fmt.Sprintf("devsim/%s", deviceID)
	return Topics{
		Prefix:    prefix,
		Connect:   prefix + "/c",
		Telemetry: prefix + "/telemetry",
	}
}

type mqttMirror struct {
	log    *log2.Log
	m      mqtt.Client
	topics Topics
}

var _ tele.Mirror = &mqttMirror{} // compile-time interface test

// New returns tele.Noop when broker is not configured.
// Connection is established in background with retry, publish before connect is dropped.
func New(log *log2.Log, deviceID string, c tele_config.Mirror) (tele.Mirror, error) {
	if c.MqttBroker == "" {
		return tele.Noop{}, nil
	}
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if c.MqttLogDebug {
		mqtt.DEBUG = log
	}

	self := &mqttMirror{log: log, topics: NewTopics(deviceID)}
	clientID := "devsim-" + deviceID
	keepAlive := helpers.IntSecondDefault(c.KeepaliveSec, 60*time.Second)
	mopt := mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetBinaryWill(self.topics.Connect, []byte{statusOffline}, 1, true).
		SetCleanSession(true).
		SetClientID(clientID).
		SetKeepAlive(keepAlive).
		SetPingTimeout(keepAlive / 2).
		SetOrderMatters(false).
		SetConnectRetryInterval(keepAlive / 2).
		SetConnectRetry(true).
		SetAutoReconnect(true).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if c.MqttPassword != "" {
		mopt.SetUsername(clientID).SetPassword(c.MqttPassword)
	}
	self.m = mqtt.NewClient(mopt)
	token := self.m.Connect()
	if token.WaitTimeout(0) && token.Error() != nil {
		return nil, errors.Annotatef(token.Error(), "mqtt connect broker=%s", c.MqttBroker)
	}
	log.Debugf("mqtt mirror broker=%s topic=%s", c.MqttBroker, self.topics.Telemetry)
	return self, nil
}

func (self *mqttMirror) Telemetry(msg *tele.TelemetryMessage) {
	if !self.m.IsConnectionOpen() {
		return
	}
	self.m.Publish(self.topics.Telemetry, 0, false, msg.Data)
}

func (self *mqttMirror) Close() {
	if self.m.IsConnectionOpen() {
		self.m.Publish(self.topics.Connect, 1, true, []byte{statusOffline}).WaitTimeout(time.Second)
	}
	self.m.Disconnect(250)
}

func (self *mqttMirror) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *mqttMirror) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topics.Connect, 1, true, []byte{statusOnline})
}
