package tele

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/log2"
)

type transportMqtt struct {
	log       *log2.Log
	onCommand func([]byte)
	m         mqtt.Client
	topics    Topics
	timeout   time.Duration
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, c Config, topics Topics, onCommand func([]byte), willPayload []byte) error {
	self.log = log
	mqttLog := log.Clone(log2.LInfo)
	if c.MqttLogDebug {
		mqttLog.SetLevel(log2.LDebug)
		mqtt.DEBUG = mqttLog
	}
	mqtt.ERROR = mqttLog
	mqtt.CRITICAL = mqttLog
	mqtt.WARN = mqttLog

	if c.MqttBroker == "" {
		return errors.NotValidf("tele mqtt_broker empty")
	}
	self.topics = topics
	self.onCommand = onCommand
	self.timeout = helpers.IntSecondDefault(c.NetworkTimeoutSec, DefaultNetworkTimeout)
	keepAlive := helpers.IntSecondDefault(c.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(c.PingTimeoutSec, 30*time.Second)

	opt := mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetBinaryWill(topics.Connect, willPayload, 1, true).
		SetClientID(c.ClientID).
		SetUsername(c.ClientID).
		SetPassword(c.MqttPassword).
		SetDefaultPublishHandler(self.messageHandler).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetResumeSubs(true).
		SetCleanSession(false).
		SetConnectRetryInterval(self.timeout / 2).
		SetConnectRetry(true).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if c.StorePath != "" {
		opt.SetStore(mqtt.NewFileStore(c.StorePath))
	}
	self.m = mqtt.NewClient(opt)
	// with ConnectRetry token completes only after first success, do not wait
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("tele mqtt connect err=%v", token.Error())
	}
	return nil
}

func (self *transportMqtt) Close() {
	if self.m == nil {
		return
	}
	self.m.Publish(self.topics.Connect, 1, true, []byte{0x00}).WaitTimeout(time.Second)
	self.m.Disconnect(250)
}

func (self *transportMqtt) SendState(payload []byte) bool {
	self.log.Debugf("tele mqtt state payload=%x", payload)
	self.m.Publish(self.topics.State, 1, true, payload)
	return true
}

func (self *transportMqtt) SendEvent(payload []byte) bool {
	if !self.m.IsConnectionOpen() {
		return false
	}
	token := self.m.Publish(self.topics.Event, 1, false, payload)
	if !token.WaitTimeout(self.timeout) {
		self.log.Errorf("tele mqtt publish event timeout=%v", self.timeout)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Error(errors.Annotate(err, "tele mqtt publish event"))
		return false
	}
	return true
}

func (self *transportMqtt) messageHandler(c mqtt.Client, msg mqtt.Message) {
	if msg.Topic() != self.topics.Command {
		self.log.Errorf("tele mqtt unexpected topic=%s payload=%x", msg.Topic(), msg.Payload())
		return
	}
	self.onCommand(msg.Payload())
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("tele mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("tele mqtt connect")
	if token := c.Subscribe(self.topics.Command, 1, nil); token.Wait() && token.Error() != nil {
		self.log.Errorf("tele mqtt subscribe err=%v", token.Error())
		return
	}
	c.Publish(self.topics.Connect, 1, true, []byte{0x01})
}
