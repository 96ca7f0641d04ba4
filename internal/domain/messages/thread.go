package messages

import (
	"strings"

	"rentlona/internal/domain/user"
)

// ThreadSeparator joins the two participant ids of a thread.
const ThreadSeparator = "_"

// ThreadID identifies the unordered pair of users exchanging messages.
type ThreadID string

// DeriveThreadID is symmetric: DeriveThreadID(a, b) == DeriveThreadID(b, a).
func DeriveThreadID(a, b user.ID) ThreadID {
	x, y := string(a), string(b)
	if y < x {
		x, y = y, x
	}
	return ThreadID(x + ThreadSeparator + y)
}

// Participants splits a thread id back into its two (sorted) user ids.
func (t ThreadID) Participants() (user.ID, user.ID, bool) {
	first, second, ok := strings.Cut(string(t), ThreadSeparator)
	if !ok || first == "" || second == "" || strings.Contains(second, ThreadSeparator) {
		return "", "", false
	}
	if second < first {
		return "", "", false
	}
	return user.ID(first), user.ID(second), true
}

// Includes reports whether userID is one of the thread's participants.
func (t ThreadID) Includes(userID user.ID) bool {
	a, b, ok := t.Participants()
	if !ok {
		return false
	}
	return userID != "" && (a == userID || b == userID)
}
