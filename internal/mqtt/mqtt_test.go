package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type mockClient struct {
	paho_mqtt.Client
	mock.Mock
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(paho_mqtt.Token)
}

func (m *mockClient) Connect() paho_mqtt.Token {
	return m.Called().Get(0).(paho_mqtt.Token)
}

func TestTopic(t *testing.T) {
	s := New(&mockClient{}, "Home Planner", 0)
	topic := s.Topic(publisher.ChangeEvent{Collection: "voice_assistants", Action: publisher.ActionCreated})
	assert.Equal(t, "home_planner/voice_assistants/created", topic)
}

func TestPublish(t *testing.T) {
	client := &mockClient{}
	s := New(client, "planner", 1)
	event := publisher.ChangeEvent{Collection: "rooms", Action: publisher.ActionDeleted, ID: "r1", At: time.Unix(0, 0).UTC()}

	client.On("Publish", "planner/rooms/deleted", byte(1), false, mock.MatchedBy(func(p []byte) bool {
		var got publisher.ChangeEvent
		return json.Unmarshal(p, &got) == nil && got.ID == "r1"
	})).Return(&doneToken{})

	require.NoError(t, s.Publish(context.Background(), event))
	client.AssertExpectations(t)
}

func TestPublishError(t *testing.T) {
	client := &mockClient{}
	s := New(client, "planner", 0)
	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&doneToken{err: errors.New("not connected")})

	err := s.Publish(context.Background(), publisher.ChangeEvent{Collection: "rooms", Action: publisher.ActionCreated})
	assert.EqualError(t, err, "not connected")
}

func TestConnect(t *testing.T) {
	client := &mockClient{}
	client.On("Connect").Return(&doneToken{})
	assert.NoError(t, New(client, "p", 0).Connect())
}
