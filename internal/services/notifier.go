package services

import (
	"fmt"

	pubnub "github.com/pubnub/go"
	"github.com/rs/zerolog/log"
)

// Ticket change kinds published to coordinators.
const (
	EventMemberAdded      = "member_added"
	EventTicketSwapped    = "ticket_swapped"
	EventAttendanceMarked = "attendance_marked"
)

type Notification struct {
	Type     string   `json:"type"`
	EventID  string   `json:"event_id"`
	TicketID string   `json:"ticket_id"`
	UserIDs  []string `json:"user_ids,omitempty"`
}

// Notifier tells live coordinator screens that a ticket changed. Delivery
// is best-effort and never fails the operation.
type Notifier interface {
	Notify(n Notification)
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(Notification) {}

// publisher is the part of the PubNub client the notifier uses.
type publisher interface {
	Publish(channel string, message any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func (p pubnubPublisher) Publish(channel string, message any) error {
	_, _, err := p.pn.Publish().Channel(channel).Message(message).Execute()
	return err
}

// PubNubNotifier publishes on channel event-<event id>.
type PubNubNotifier struct {
	pub publisher
}

func NewPubNubNotifier(publishKey, subscribeKey, secretKey string) *PubNubNotifier {
	cfg := pubnub.NewConfig()
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey

	return &PubNubNotifier{pub: pubnubPublisher{pn: pubnub.NewPubNub(cfg)}}
}

func EventChannel(eventID string) string {
	return fmt.Sprintf("event-%s", eventID)
}

func (n *PubNubNotifier) Notify(msg Notification) {
	if err := n.pub.Publish(EventChannel(msg.EventID), msg); err != nil {
		log.Warn().Err(err).
			Str("ticket_id", msg.TicketID).
			Str("event_id", msg.EventID).
			Str("type", msg.Type).
			Msg("failed to publish ticket notification")
	}
}
