package memory

import (
	"context"
	"sync"

	domainmessages "rentlona/internal/domain/messages"
	"rentlona/internal/domain/shared/events"
	domainuser "rentlona/internal/domain/user"
)

// MessageRepository stores messages in insertion order.
type MessageRepository struct {
	mu    sync.RWMutex
	items []*domainmessages.Message
	index map[domainmessages.MessageID]int
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{index: make(map[domainmessages.MessageID]int)}
}

func (r *MessageRepository) Add(ctx context.Context, msg *domainmessages.Message) error {
	if msg == nil || msg.ID == "" {
		return domainmessages.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[msg.ID]; ok {
		return domainmessages.ErrDuplicateMessage
	}
	r.index[msg.ID] = len(r.items)
	r.items = append(r.items, cloneMessage(msg))
	return nil
}

func (r *MessageRepository) Thread(ctx context.Context, threadID domainmessages.ThreadID) ([]*domainmessages.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainmessages.Message, 0)
	for _, msg := range r.items {
		if msg.ThreadID == threadID {
			out = append(out, cloneMessage(msg))
		}
	}
	domainmessages.SortChronological(out)
	return out, nil
}

func (r *MessageRepository) ForUser(ctx context.Context, userID domainuser.ID) ([]*domainmessages.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainmessages.Message, 0)
	for _, msg := range r.items {
		if msg.Sender == userID || msg.Receiver == userID {
			out = append(out, cloneMessage(msg))
		}
	}
	domainmessages.SortNewestFirst(out)
	return out, nil
}

func (r *MessageRepository) Conversations(ctx context.Context, viewer domainuser.ID) ([]domainmessages.Summary, error) {
	msgs, err := r.ForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return domainmessages.Summarize(viewer, msgs), nil
}

func (r *MessageRepository) MarkThreadRead(ctx context.Context, threadID domainmessages.ThreadID, receiver domainuser.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for _, msg := range r.items {
		if msg.ThreadID == threadID && msg.UnreadFor(receiver) {
			msg.Read = true
			updated++
		}
	}
	return updated, nil
}

func cloneMessage(m *domainmessages.Message) *domainmessages.Message {
	c := *m
	c.EventRecorder = events.EventRecorder{}
	return &c
}

var _ domainmessages.Repository = (*MessageRepository)(nil)
