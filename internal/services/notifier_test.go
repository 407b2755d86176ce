package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(channel string, message any) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

func TestPubNubNotifier_PublishesOnEventChannel(t *testing.T) {
	pub := new(MockPublisher)
	n := &PubNubNotifier{pub: pub}
	msg := Notification{Type: EventMemberAdded, EventID: "e1", TicketID: "t1", UserIDs: []string{"u2"}}

	pub.On("Publish", "event-e1", msg).Return(nil)

	n.Notify(msg)
	pub.AssertExpectations(t)
}

func TestPubNubNotifier_SwallowsErrors(t *testing.T) {
	pub := new(MockPublisher)
	n := &PubNubNotifier{pub: pub}
	msg := Notification{Type: EventAttendanceMarked, EventID: "e2", TicketID: "t9"}

	pub.On("Publish", "event-e2", msg).Return(errors.New("403 forbidden"))

	assert.NotPanics(t, func() { n.Notify(msg) })
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestEventChannel(t *testing.T) {
	assert.Equal(t, "event-abc", EventChannel("abc"))
}
