package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTOptions configures the MQTT publisher.
type MQTTOptions struct {
	Broker      string // e.g. tcp://127.0.0.1:1883
	ClientID    string
	TopicPrefix string
	Script      string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Topic is where events for a script are published.
func (o MQTTOptions) Topic() string {
	prefix := strings.TrimSuffix(o.TopicPrefix, "/")
	if prefix == "" {
		prefix = "simcampaign"
	}
	return fmt.Sprintf("%s/%s/runs", prefix, o.Script)
}

// publisher is the subset of mqtt.Client used here.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes events as JSON with QoS 0.
type MQTT struct {
	client  publisher
	topic   string
	timeout time.Duration
	log     *zap.Logger
}

// NewMQTT connects to the broker.
func NewMQTT(o MQTTOptions) (*MQTT, error) {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.ClientID == "" {
		o.ClientID = fmt.Sprintf("simcampaign-%d", time.Now().UnixNano())
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(o.Timeout)
	opts.SetKeepAlive(30 * time.Second)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(o.Timeout) {
		return nil, fmt.Errorf("notify: mqtt connect %s: timed out", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("notify: mqtt connect %s: %w", o.Broker, err)
	}
	return newMQTT(c, o), nil
}

func newMQTT(c publisher, o MQTTOptions) *MQTT {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return &MQTT{client: c, topic: o.Topic(), timeout: o.Timeout, log: log}
}

// Notify publishes ev as JSON at QoS 0. Failures are logged, never returned.
func (m *MQTT) Notify(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Warn("encode event", zap.Error(err))
		return
	}
	token := m.client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(m.timeout) {
		m.log.Warn("mqtt publish timed out", zap.String("topic", m.topic))
		return
	}
	if err := token.Error(); err != nil {
		m.log.Warn("mqtt publish", zap.String("topic", m.topic), zap.Error(err))
	}
}

// Close disconnects from the broker, waiting up to 250ms for in-flight work.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
