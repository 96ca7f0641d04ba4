package messages

import (
	"time"

	"rentlona/internal/domain/user"
)

type MessageSentEvent struct {
	MessageID  MessageID
	ThreadID   ThreadID
	SenderID   user.ID
	ReceiverID user.ID
	Content    string
	At         time.Time
}

func (e MessageSentEvent) EventName() string     { return "message.sent" }
func (e MessageSentEvent) AggregateID() string   { return string(e.ThreadID) }
func (e MessageSentEvent) OccurredAt() time.Time { return e.At }

type ThreadReadEvent struct {
	ThreadID ThreadID
	ReaderID user.ID
	Updated  int
	At       time.Time
}

func (e ThreadReadEvent) EventName() string     { return "message.thread_read" }
func (e ThreadReadEvent) AggregateID() string   { return string(e.ThreadID) }
func (e ThreadReadEvent) OccurredAt() time.Time { return e.At }
