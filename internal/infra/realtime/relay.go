package realtime

import (
	"fmt"
	"strings"
)

const (
	EventJoin           = "join"
	EventSendMessage    = "sendMessage"
	EventSend           = "send"
	EventReceiveMessage = "receiveMessage"
	EventNewMessage     = "newMessage"
)

// identity is attached to an authenticated socket.
type identity struct {
	UserID string
}

// joinRoom decides which room a join request may enter. Authenticated sockets
// may only join their own room; with requireAuth off an anonymous socket may
// join any.
func joinRoom(id *identity, args []any, requireAuth bool) (string, bool) {
	requested := ""
	if len(args) > 0 {
		requested = stringArg(args[0])
	}
	switch {
	case id != nil:
		if requested != "" && requested != id.UserID {
			return "", false
		}
		return id.UserID, true
	case requireAuth || requested == "":
		return "", false
	default:
		return requested, true
	}
}

// relayTarget extracts receiverId from a sendMessage payload. For an
// authenticated socket senderId is overwritten with the token subject.
func relayTarget(id *identity, args []any) (string, any, bool) {
	if len(args) == 0 {
		return "", nil, false
	}
	payload, ok := args[0].(map[string]any)
	if !ok {
		return "", nil, false
	}
	receiver := strings.TrimSpace(stringArg(payload["receiverId"]))
	if receiver == "" {
		if r, ok := payload["receiver"].(map[string]any); ok {
			receiver = strings.TrimSpace(stringArg(r["id"]))
		} else {
			receiver = strings.TrimSpace(stringArg(payload["receiver"]))
		}
	}
	if receiver == "" {
		return "", nil, false
	}
	if id != nil {
		out := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			out[k] = v
		}
		out["senderId"] = id.UserID
		payload = out
	}
	return receiver, payload, true
}

func stringArg(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	case float64, int, int64:
		return fmt.Sprint(s)
	default:
		return ""
	}
}
