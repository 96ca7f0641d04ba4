package dto

import (
	"time"

	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
)

type Message struct {
	ID        string      `json:"id"`
	Sender    UserSummary `json:"sender"`
	Receiver  UserSummary `json:"receiver"`
	Content   string      `json:"content"`
	ThreadID  string      `json:"threadId"`
	Read      bool        `json:"read"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Conversation struct {
	ThreadID     string        `json:"threadId"`
	LastMessage  Message       `json:"lastMessage"`
	MessageCount int           `json:"messageCount"`
	UnreadCount  int           `json:"unreadCount"`
	Participants []UserSummary `json:"participants"`
}

type MarkReadResult struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

func MapMessage(m *domainmessages.Message, users map[domainuser.ID]*domainuser.User) Message {
	return Message{
		ID:        string(m.ID),
		Sender:    SummaryFor(m.Sender, users),
		Receiver:  SummaryFor(m.Receiver, users),
		Content:   m.Content,
		ThreadID:  string(m.ThreadID),
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func MapMessages(msgs []*domainmessages.Message, users map[domainuser.ID]*domainuser.User) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MapMessage(m, users))
	}
	return out
}

// MapConversation drops participants that could not be resolved.
func MapConversation(s domainmessages.Summary, viewer domainuser.ID, users map[domainuser.ID]*domainuser.User) Conversation {
	participants := make([]UserSummary, 0, 1)
	for _, id := range s.Participants(viewer) {
		if u, ok := users[id]; ok {
			participants = append(participants, MapUserSummary(u))
		}
	}
	conv := Conversation{
		ThreadID:     string(s.ThreadID),
		MessageCount: s.Count,
		UnreadCount:  s.Unread,
		Participants: participants,
	}
	if s.Last != nil {
		conv.LastMessage = MapMessage(s.Last, users)
	}
	return conv
}

// ParticipantIDs collects every user referenced by the messages.
func ParticipantIDs(msgs ...*domainmessages.Message) []domainuser.ID {
	seen := make(map[domainuser.ID]struct{}, len(msgs)*2)
	out := make([]domainuser.ID, 0, len(msgs)*2)
	for _, m := range msgs {
		if m == nil {
			continue
		}
		for _, id := range []domainuser.ID{m.Sender, m.Receiver} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
