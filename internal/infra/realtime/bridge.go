package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	appoutbox "rentlona/internal/app/outbox"
	domainmessages "rentlona/internal/domain/messages"
	"rentlona/internal/infra/broker/kafka"
)

// Emitter is the part of Hub the bridge needs.
type Emitter interface {
	EmitToUser(userID, event string, payload any)
}

// Deduplicator reports whether an event id was handled before.
type Deduplicator interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// Bridge turns message.sent domain events into newMessage pushes.
type Bridge struct {
	Emitter Emitter
	// Dedupe is optional; the memory outbox never redelivers.
	Dedupe Deduplicator
	Logger *slog.Logger
}

// NewMessagePush is the payload of the newMessage event.
type NewMessagePush struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

var messageSentName = domainmessages.MessageSentEvent{}.EventName()

// Deliver pushes one event. Other event names are ignored.
func (b *Bridge) Deliver(ctx context.Context, eventID, name string, data []byte) error {
	if name != messageSentName {
		return nil
	}
	var ev domainmessages.MessageSentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	if b.Dedupe != nil && eventID != "" {
		seen, err := b.Dedupe.Seen(ctx, eventID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	b.Emitter.EmitToUser(string(ev.ReceiverID), EventNewMessage, NewMessagePush{
		ID:         string(ev.MessageID),
		ThreadID:   string(ev.ThreadID),
		SenderID:   string(ev.SenderID),
		ReceiverID: string(ev.ReceiverID),
		Content:    ev.Content,
		CreatedAt:  ev.At,
	})
	return nil
}

// OnFlush adapts the bridge to the memory outbox hook.
func (b *Bridge) OnFlush(rec appoutbox.EventRecord) {
	if err := b.Deliver(context.Background(), rec.ID, rec.Name, rec.Payload); err != nil {
		b.logger().Warn("realtime bridge delivery failed", "event", rec.Name, "id", rec.ID, "error", err)
	}
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var errNotCloudEvent = errors.New("realtime: message is not a cloudevent")

// Handle consumes CloudEvents published by the outbox worker.
func (b *Bridge) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev cloudEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return err
	}
	if ev.ID == "" || ev.Type == "" {
		return errNotCloudEvent
	}
	name := kafka.Header(msg, "event-name")
	if name == "" {
		name = trimVersion(ev.Type)
	}
	return b.Deliver(ctx, ev.ID, name, ev.Data)
}

// trimVersion maps "message.sent.v1" to "message.sent".
func trimVersion(t string) string {
	return strings.TrimSuffix(t, ".v1")
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

var _ kafka.MessageHandler = (*Bridge)(nil)
