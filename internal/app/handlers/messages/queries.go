package messages

import (
	"context"
	"log/slog"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/uow"
	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

const (
	getThreadKey         = "messages.thread"
	listConversationsKey = "messages.conversations"
	listMessagesKey      = "messages.list"
)

// GetThreadQuery returns a thread oldest first. Only participants may read it.
type GetThreadQuery struct {
	ViewerID string
	ThreadID string
}

func (q GetThreadQuery) Key() string     { return getThreadKey }
func (q GetThreadQuery) ActorID() string { return q.ViewerID }

type GetThreadHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetThreadHandler) Handle(ctx context.Context, q GetThreadQuery) ([]dto.Message, error) {
	thread, err := participantThread(q.ThreadID, q.ViewerID)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	msgs, err := unit.Messages().Thread(execCtx, thread)
	if err != nil {
		return nil, err
	}
	domainmessages.SortChronological(msgs)
	users, err := unit.Users().ByIDs(execCtx, dto.ParticipantIDs(msgs...))
	if err != nil {
		return nil, err
	}
	return dto.MapMessages(msgs, users), nil
}

type ListConversationsQuery struct {
	ViewerID string
}

func (q ListConversationsQuery) Key() string     { return listConversationsKey }
func (q ListConversationsQuery) ActorID() string { return q.ViewerID }

type ListConversationsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListConversationsHandler) Handle(ctx context.Context, q ListConversationsQuery) ([]dto.Conversation, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	viewer := domainuser.ID(q.ViewerID)
	summaries, err := unit.Messages().Conversations(execCtx, viewer)
	if err != nil {
		return nil, err
	}
	// Stores may group in their own order; the list ordering is applied here.
	domainmessages.SortSummaries(summaries)

	lasts := make([]*domainmessages.Message, 0, len(summaries))
	for _, s := range summaries {
		lasts = append(lasts, s.Last)
	}
	users, err := unit.Users().ByIDs(execCtx, dto.ParticipantIDs(lasts...))
	if err != nil {
		return nil, err
	}

	out := make([]dto.Conversation, 0, len(summaries))
	for _, s := range summaries {
		for _, id := range s.Participants(viewer) {
			if _, ok := users[id]; !ok && h.Logger != nil {
				h.Logger.Warn("conversation participant missing", "thread_id", s.ThreadID, "user_id", id)
			}
		}
		out = append(out, dto.MapConversation(s, viewer, users))
	}
	return out, nil
}

// ListMessagesQuery returns every message the viewer sent or received, newest
// first.
type ListMessagesQuery struct {
	ViewerID string
}

func (q ListMessagesQuery) Key() string     { return listMessagesKey }
func (q ListMessagesQuery) ActorID() string { return q.ViewerID }

type ListMessagesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMessagesHandler) Handle(ctx context.Context, q ListMessagesQuery) ([]dto.Message, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	msgs, err := unit.Messages().ForUser(execCtx, domainuser.ID(q.ViewerID))
	if err != nil {
		return nil, err
	}
	domainmessages.SortNewestFirst(msgs)
	users, err := unit.Users().ByIDs(execCtx, dto.ParticipantIDs(msgs...))
	if err != nil {
		return nil, err
	}
	return dto.MapMessages(msgs, users), nil
}
