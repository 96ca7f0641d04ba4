package messages

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"rentlona/internal/domain/shared/events"
	"rentlona/internal/domain/shared/validation"
	"rentlona/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("messages: id is required")
	ErrSenderRequired   = errors.New("messages: sender is required")
	ErrReceiverNotFound = errors.New("messages: receiver not found")
	ErrNotParticipant   = errors.New("messages: viewer is not a participant of the thread")
	ErrDuplicateMessage = errors.New("messages: message already exists")
)

const maxContentLength = 5000

type MessageID string

type Message struct {
	ID        MessageID
	Sender    user.ID
	Receiver  user.ID
	Content   string
	ThreadID  ThreadID
	Read      bool
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	// Add inserts a new message; messages are never rewritten apart from Read.
	Add(ctx context.Context, msg *Message) error
	// Thread returns the messages of a thread ordered by creation time ascending.
	Thread(ctx context.Context, threadID ThreadID) ([]*Message, error)
	// ForUser returns every message the user sent or received, newest first.
	ForUser(ctx context.Context, userID user.ID) ([]*Message, error)
	// Conversations groups the viewer's messages by thread, see Summarize.
	Conversations(ctx context.Context, viewer user.ID) ([]Summary, error)
	// MarkThreadRead flips read on the viewer's unread incoming messages of the
	// thread and returns how many changed.
	MarkThreadRead(ctx context.Context, threadID ThreadID, receiver user.ID) (int, error)
}

type NewMessageParams struct {
	ID       MessageID
	Sender   user.ID
	Receiver user.ID
	Content  string
	// ThreadID is optional; when set it must match the derived id.
	ThreadID  ThreadID
	AllowSelf bool
	Now       time.Time
}

func NewMessage(params NewMessageParams) (*Message, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Sender)) == "" {
		return nil, ErrSenderRequired
	}
	var v validation.Collector
	receiver := user.ID(strings.TrimSpace(string(params.Receiver)))
	v.Check(receiver != "", "receiverId", "is required")
	v.Check(params.AllowSelf || receiver == "" || receiver != params.Sender, "receiverId", "cannot message yourself")
	content := strings.TrimSpace(params.Content)
	v.Check(content != "", "content", "is required")
	v.Check(utf8.RuneCountInString(content) <= maxContentLength, "content", "is too long")

	thread := DeriveThreadID(params.Sender, receiver)
	if supplied := ThreadID(strings.TrimSpace(string(params.ThreadID))); supplied != "" && receiver != "" {
		v.Check(supplied == thread, "threadId", "does not match sender and receiver")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	msg := &Message{
		ID:        params.ID,
		Sender:    params.Sender,
		Receiver:  receiver,
		Content:   content,
		ThreadID:  thread,
		CreatedAt: now,
	}
	msg.Record(MessageSentEvent{MessageID: msg.ID, ThreadID: thread, SenderID: msg.Sender, ReceiverID: msg.Receiver, Content: msg.Content, At: now})
	return msg, nil
}

// Counterpart returns the participant of the message that is not viewer. For a
// self-addressed message it returns "".
func (m *Message) Counterpart(viewer user.ID) user.ID {
	switch viewer {
	case m.Sender:
		if m.Receiver == viewer {
			return ""
		}
		return m.Receiver
	case m.Receiver:
		return m.Sender
	default:
		return ""
	}
}

// UnreadFor reports whether the message is waiting to be read by viewer.
func (m *Message) UnreadFor(viewer user.ID) bool {
	return !m.Read && m.Receiver == viewer
}
