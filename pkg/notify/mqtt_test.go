package notify

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/simcampaign/pkg/types"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	published    []message
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, message{topic: topic, payload: payload.([]byte)})
	return fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTOptions_Topic(t *testing.T) {
	assert.Equal(t, "lab/wifi-multi-tos/runs", MQTTOptions{TopicPrefix: "lab/", Script: "wifi-multi-tos"}.Topic())
	assert.Equal(t, "simcampaign/wifi/runs", MQTTOptions{Script: "wifi"}.Topic())
}

func TestMQTT_NotifyPublishesJSON(t *testing.T) {
	fc := &fakeClient{}
	m := newMQTT(fc, MQTTOptions{Script: "wifi"})

	m.Notify(Event{
		Kind:       KindFinished,
		Script:     "wifi",
		Params:     map[string]types.Value{"distance": types.Int(5)},
		Repetition: 1,
		Done:       3,
		Total:      8,
	})

	require.Len(t, fc.published, 1)
	assert.Equal(t, "simcampaign/wifi/runs", fc.published[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &got))
	assert.Equal(t, "finished", got["kind"])
	assert.Equal(t, 5.0, got["params"].(map[string]any)["distance"])
	assert.NotEmpty(t, got["at"])

	require.NoError(t, m.Close())
	assert.True(t, fc.disconnected)
}

func TestMQTT_PublishErrorIsNotFatal(t *testing.T) {
	fc := &fakeClient{err: errors.New("broker gone")}
	m := newMQTT(fc, MQTTOptions{Script: "wifi"})
	assert.NotPanics(t, func() { m.Notify(Event{Kind: KindFailed}) })
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.Notify(Event{})
	assert.NoError(t, n.Close())
}
