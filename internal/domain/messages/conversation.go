package messages

import (
	"sort"

	"rentlona/internal/domain/user"
)

// Summary is the per-thread aggregate shown in the conversation list. It is
// never stored.
type Summary struct {
	ThreadID ThreadID
	Last     *Message
	Count    int
	// Unread counts messages addressed to the viewer that are not yet read.
	Unread int
}

// Participants lists the users of the last message other than viewer.
func (s Summary) Participants(viewer user.ID) []user.ID {
	if s.Last == nil {
		return nil
	}
	other := s.Last.Counterpart(viewer)
	if other == "" {
		return nil
	}
	return []user.ID{other}
}

// Summarize groups the viewer's messages by thread. Messages the viewer is not
// part of are ignored. The last message of a group is the one with the latest
// CreatedAt, ties going to the greater id. Groups are ordered by their last
// message newest first, ties by thread id ascending.
func Summarize(viewer user.ID, msgs []*Message) []Summary {
	byThread := make(map[ThreadID]*Summary)
	order := make([]ThreadID, 0)
	for _, msg := range msgs {
		if msg == nil || (msg.Sender != viewer && msg.Receiver != viewer) {
			continue
		}
		s, ok := byThread[msg.ThreadID]
		if !ok {
			s = &Summary{ThreadID: msg.ThreadID}
			byThread[msg.ThreadID] = s
			order = append(order, msg.ThreadID)
		}
		s.Count++
		if msg.UnreadFor(viewer) {
			s.Unread++
		}
		if s.Last == nil || later(msg, s.Last) {
			s.Last = msg
		}
	}

	out := make([]Summary, 0, len(order))
	for _, id := range order {
		out = append(out, *byThread[id])
	}
	SortSummaries(out)
	return out
}

// SortSummaries applies the conversation list ordering in place.
func SortSummaries(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Last, items[j].Last
		if a != nil && b != nil && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return items[i].ThreadID < items[j].ThreadID
	})
}

// SortChronological orders a thread oldest first, ties by id.
func SortChronological(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return later(msgs[j], msgs[i])
	})
}

// SortNewestFirst is the inverse of SortChronological.
func SortNewestFirst(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return later(msgs[i], msgs[j])
	})
}

func later(a, b *Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
