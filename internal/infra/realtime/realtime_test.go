package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentlona/internal/app/outbox"
	domainmessages "rentlona/internal/domain/messages"
)

func TestJoinRoomAuthenticated(t *testing.T) {
	id := &identity{UserID: "u1"}
	room, ok := joinRoom(id, []any{"u1"}, true)
	assert.True(t, ok)
	assert.Equal(t, "u1", room)

	_, ok = joinRoom(id, []any{"u2"}, true)
	assert.False(t, ok, "cannot join someone else's room")

	room, ok = joinRoom(id, nil, true)
	assert.True(t, ok)
	assert.Equal(t, "u1", room)
}

func TestJoinRoomAnonymous(t *testing.T) {
	_, ok := joinRoom(nil, []any{"u2"}, true)
	assert.False(t, ok)

	room, ok := joinRoom(nil, []any{"u2"}, false)
	assert.True(t, ok)
	assert.Equal(t, "u2", room)

	_, ok = joinRoom(nil, []any{map[string]any{}}, false)
	assert.False(t, ok)
}

func TestRelayTarget(t *testing.T) {
	payload := map[string]any{"receiverId": "u2", "content": "hi", "senderId": "spoofed"}
	receiver, out, ok := relayTarget(&identity{UserID: "u1"}, []any{payload})
	require.True(t, ok)
	assert.Equal(t, "u2", receiver)
	assert.Equal(t, "u1", out.(map[string]any)["senderId"])
	assert.Equal(t, "spoofed", payload["senderId"], "input is not mutated")

	receiver, out, ok = relayTarget(nil, []any{map[string]any{"receiver": map[string]any{"id": "u3"}}})
	require.True(t, ok)
	assert.Equal(t, "u3", receiver)
	assert.NotContains(t, out.(map[string]any), "senderId")

	_, _, ok = relayTarget(nil, []any{"not an object"})
	assert.False(t, ok)
	_, _, ok = relayTarget(nil, []any{map[string]any{"content": "no receiver"}})
	assert.False(t, ok)
	_, _, ok = relayTarget(nil, nil)
	assert.False(t, ok)
}

type emitted struct {
	user    string
	event   string
	payload any
}

type recordingEmitter struct{ out []emitted }

func (r *recordingEmitter) EmitToUser(userID, event string, payload any) {
	r.out = append(r.out, emitted{userID, event, payload})
}

type memoryDedupe map[string]bool

func (m memoryDedupe) Seen(ctx context.Context, id string) (bool, error) {
	seen := m[id]
	m[id] = true
	return seen, nil
}

func sentPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(domainmessages.MessageSentEvent{
		MessageID:  "m1",
		ThreadID:   "u1_u2",
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    "hello",
		At:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return data
}

func TestBridgeOnFlushPushesToReceiver(t *testing.T) {
	em := &recordingEmitter{}
	b := &Bridge{Emitter: em}
	b.OnFlush(appoutbox.EventRecord{ID: "e1", Name: "message.sent", Payload: sentPayload(t)})
	b.OnFlush(appoutbox.EventRecord{ID: "e2", Name: "listing.created", Payload: []byte(`{}`)})

	require.Len(t, em.out, 1)
	assert.Equal(t, "u2", em.out[0].user)
	assert.Equal(t, EventNewMessage, em.out[0].event)
	push := em.out[0].payload.(NewMessagePush)
	assert.Equal(t, "hello", push.Content)
	assert.Equal(t, "u1_u2", push.ThreadID)
}

func TestBridgeKafkaDropsDuplicates(t *testing.T) {
	em := &recordingEmitter{}
	b := &Bridge{Emitter: em, Dedupe: memoryDedupe{}}
	envelope, err := json.Marshal(map[string]any{
		"id":   "e1",
		"type": "message.sent.v1",
		"data": json.RawMessage(sentPayload(t)),
	})
	require.NoError(t, err)
	msg := &sarama.ConsumerMessage{Value: envelope}

	require.NoError(t, b.Handle(context.Background(), msg))
	require.NoError(t, b.Handle(context.Background(), msg))
	assert.Len(t, em.out, 1)

	assert.ErrorIs(t, b.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{}`)}), errNotCloudEvent)
}
