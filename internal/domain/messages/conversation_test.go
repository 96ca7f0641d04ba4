package messages

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentlona/internal/domain/user"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func msg(id string, from, to user.ID, offset time.Duration, read bool) *Message {
	return &Message{
		ID:        MessageID(id),
		Sender:    from,
		Receiver:  to,
		Content:   "content " + id,
		ThreadID:  DeriveThreadID(from, to),
		Read:      read,
		CreatedAt: base.Add(offset),
	}
}

func TestSummarizeOneEntryPerThread(t *testing.T) {
	msgs := []*Message{
		msg("1", "a", "b", 1*time.Minute, false),
		msg("2", "b", "a", 2*time.Minute, false),
		msg("3", "a", "c", 3*time.Minute, false),
		msg("4", "c", "a", 4*time.Minute, true),
		msg("5", "b", "c", 5*time.Minute, false),
		msg("6", "b", "a", 6*time.Minute, false),
	}
	got := Summarize("a", msgs)
	require.Len(t, got, 2)

	seen := map[ThreadID]bool{}
	for _, s := range got {
		assert.False(t, seen[s.ThreadID], "duplicate thread %s", s.ThreadID)
		seen[s.ThreadID] = true
	}
	assert.Equal(t, ThreadID("a_b"), got[0].ThreadID)
	assert.Equal(t, MessageID("6"), got[0].Last.ID)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, 2, got[0].Unread)
	assert.Equal(t, []user.ID{"b"}, got[0].Participants("a"))

	assert.Equal(t, ThreadID("a_c"), got[1].ThreadID)
	assert.Equal(t, MessageID("4"), got[1].Last.ID)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, 0, got[1].Unread)
}

func TestSummarizeUnreadCountsOnlyIncoming(t *testing.T) {
	msgs := []*Message{
		msg("1", "a", "b", time.Minute, false),
		msg("2", "a", "b", 2*time.Minute, false),
		msg("3", "b", "a", 3*time.Minute, false),
	}
	forA := Summarize("a", msgs)
	forB := Summarize("b", msgs)
	require.Len(t, forA, 1)
	require.Len(t, forB, 1)
	assert.Equal(t, 1, forA[0].Unread)
	assert.Equal(t, 2, forB[0].Unread)
	assert.Equal(t, 3, forA[0].Count)
}

func TestSummarizeOrderingAndTieBreak(t *testing.T) {
	msgs := []*Message{
		msg("1", "a", "d", time.Minute, false),
		msg("2", "a", "c", time.Minute, false),
		msg("3", "a", "b", 0, false),
		// same timestamp inside one thread: greater id is the last one
		msg("4", "b", "a", 0, false),
	}
	got := Summarize("a", msgs)
	require.Len(t, got, 3)
	assert.Equal(t, []ThreadID{"a_c", "a_d", "a_b"}, []ThreadID{got[0].ThreadID, got[1].ThreadID, got[2].ThreadID})
	assert.Equal(t, MessageID("4"), got[2].Last.ID)
}

func TestSummarizeCompleteness(t *testing.T) {
	var msgs []*Message
	for i := 0; i < 30; i++ {
		other := user.ID(fmt.Sprintf("u%d", i%7))
		if i%2 == 0 {
			msgs = append(msgs, msg(fmt.Sprintf("%02d", i), "v", other, time.Duration(i)*time.Second, i%3 == 0))
		} else {
			msgs = append(msgs, msg(fmt.Sprintf("%02d", i), other, "v", time.Duration(i)*time.Second, i%3 == 0))
		}
	}
	got := Summarize("v", msgs)
	total := 0
	for _, s := range got {
		total += s.Count
	}
	assert.Len(t, got, 7)
	assert.Equal(t, len(msgs), total)
}

func TestSummarizeIgnoresForeignMessages(t *testing.T) {
	got := Summarize("z", []*Message{msg("1", "a", "b", 0, false)})
	assert.Empty(t, got)
}

func TestSortChronological(t *testing.T) {
	msgs := []*Message{
		msg("b", "a", "b", time.Minute, false),
		msg("c", "a", "b", 0, false),
		msg("a", "a", "b", time.Minute, false),
	}
	SortChronological(msgs)
	assert.Equal(t, []MessageID{"c", "a", "b"}, []MessageID{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	SortNewestFirst(msgs)
	assert.Equal(t, []MessageID{"b", "a", "c"}, []MessageID{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}
