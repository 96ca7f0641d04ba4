package messages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/outbox"
	domainmessages "rentlona/internal/domain/messages"
	"rentlona/internal/domain/shared/validation"
	domainuser "rentlona/internal/domain/user"
)

const (
	sendMessageKey    = "messages.send"
	markThreadReadKey = "messages.mark_read"
)

// MarkedReadMessage is the confirmation text returned by mark-read.
const MarkedReadMessage = "Messages marked as read"

type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Content    string
	ThreadID   string
	RequestKey string
}

func (c SendMessageCommand) Key() string     { return sendMessageKey }
func (c SendMessageCommand) ActorID() string { return c.SenderID }

func (c SendMessageCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.RequestKey)
	if key == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", sendMessageKey, c.SenderID, key)
}

func (c SendMessageCommand) ResultPrototype() any { return &dto.Message{} }

type SendMessageHandler struct {
	AllowSelf bool
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Logger    *slog.Logger
	Now       func() time.Time
}

func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*dto.Message, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := domainmessages.NewMessage(domainmessages.NewMessageParams{
		ID:        domainmessages.MessageID(uuid.NewString()),
		Sender:    domainuser.ID(cmd.SenderID),
		Receiver:  domainuser.ID(cmd.ReceiverID),
		Content:   cmd.Content,
		ThreadID:  domainmessages.ThreadID(cmd.ThreadID),
		AllowSelf: h.AllowSelf,
		Now:       h.now(),
	})
	if err != nil {
		return nil, err
	}

	users, err := unit.Users().ByIDs(ctx, []domainuser.ID{msg.Sender, msg.Receiver})
	if err != nil {
		return nil, err
	}
	if _, ok := users[msg.Receiver]; !ok {
		return nil, domainmessages.ErrReceiverNotFound
	}
	if err := unit.Messages().Add(ctx, msg); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, msg); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("message sent", "message_id", msg.ID, "thread_id", msg.ThreadID)
	}
	result := dto.MapMessage(msg, users)
	return &result, nil
}

func (h *SendMessageHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type MarkThreadReadCommand struct {
	ViewerID string
	ThreadID string
}

func (c MarkThreadReadCommand) Key() string     { return markThreadReadKey }
func (c MarkThreadReadCommand) ActorID() string { return c.ViewerID }

func (c MarkThreadReadCommand) Validate() error {
	if _, _, ok := domainmessages.ThreadID(strings.TrimSpace(c.ThreadID)).Participants(); !ok {
		return validation.Field("threadId", "is malformed")
	}
	return nil
}

type MarkThreadReadHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *MarkThreadReadHandler) Handle(ctx context.Context, cmd MarkThreadReadCommand) (*dto.MarkReadResult, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	thread, err := participantThread(cmd.ThreadID, cmd.ViewerID)
	if err != nil {
		return nil, err
	}
	viewer := domainuser.ID(cmd.ViewerID)
	updated, err := unit.Messages().MarkThreadRead(ctx, thread, viewer)
	if err != nil {
		return nil, err
	}
	if updated > 0 {
		ev := domainmessages.ThreadReadEvent{ThreadID: thread, ReaderID: viewer, Updated: updated, At: time.Now().UTC()}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, outbox.Events{ev}); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Debug("thread marked read", "thread_id", thread, "updated", updated)
	}
	return &dto.MarkReadResult{Message: MarkedReadMessage, Updated: updated}, nil
}

// participantThread parses raw and checks viewer belongs to it.
func participantThread(raw, viewer string) (domainmessages.ThreadID, error) {
	thread := domainmessages.ThreadID(strings.TrimSpace(raw))
	if _, _, ok := thread.Participants(); !ok {
		return "", validation.Field("threadId", "is malformed")
	}
	if !thread.Includes(domainuser.ID(viewer)) {
		return "", domainmessages.ErrNotParticipant
	}
	return thread, nil
}
