package publisher

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.Register("ws", Func(func(context.Context, ChangeEvent) error { return nil })))
	assert.ErrorIs(t, r.Register("ws", &mockPublisher{}), errAlreadyRegistered)
	assert.Equal(t, []string{"ws"}, r.Names())

	r.Unregister("ws")
	assert.Empty(t, r.Names())
}

func TestPublishContinuesAfterFailure(t *testing.T) {
	r := NewRegistry(quietLogger())
	event := ChangeEvent{Collection: "rooms", Action: ActionUpdated, ID: "r1"}

	failing := &mockPublisher{}
	failing.On("Publish", mock.Anything, mock.MatchedBy(func(e ChangeEvent) bool {
		return e.ID == "r1" && !e.At.IsZero()
	})).Return(errors.New("broker down"))

	var mu sync.Mutex
	var got []ChangeEvent
	require.NoError(t, r.Register("mqtt", failing))
	require.NoError(t, r.Register("ws", Func(func(_ context.Context, e ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})))

	r.Publish(context.Background(), event)

	failing.AssertExpectations(t)
	require.Len(t, got, 1)
	assert.Equal(t, "rooms", got[0].Collection)
	assert.Equal(t, ActionUpdated, got[0].Action)
}

func TestFailingPublisherIsSkippedOnceCircuitOpens(t *testing.T) {
	r := NewRegistry(quietLogger())
	r.MaxFailures = 2
	r.ResetTimeout = time.Hour

	failing := &mockPublisher{}
	failing.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	require.NoError(t, r.Register("mqtt", failing))

	delivered := 0
	require.NoError(t, r.Register("ws", Func(func(context.Context, ChangeEvent) error {
		delivered++
		return nil
	})))

	for i := 0; i < 5; i++ {
		r.Publish(context.Background(), ChangeEvent{Collection: "floors", Action: ActionCreated})
	}

	failing.AssertNumberOfCalls(t, "Publish", 2)
	assert.Equal(t, 5, delivered)
}
