package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoyapp/convoy/internal/cache"
	"github.com/convoyapp/convoy/internal/compliance"
	"github.com/convoyapp/convoy/internal/core"
	"github.com/convoyapp/convoy/internal/domain"
	"github.com/convoyapp/convoy/internal/moderation"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// typed decodes every received frame of the given event type.
func (c *fakeConn) typed(t *testing.T, typ string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

type failingSealer struct{}

func (failingSealer) Seal([]byte) ([]byte, error) { return nil, core.ErrKeyUnavailable }

func newTestHub(rateMax int, sealer core.Sealer) *Hub {
	presence := core.NewPresenceStore()
	kv := cache.NewMemory()
	directory := core.NewRoomDirectory(presence, kv, time.Minute, time.Minute)
	limiter := core.NewRateLimiter(kv, rateMax, time.Minute)
	pipeline := core.NewModerationPipeline(moderation.NewWordlistCleaner(), moderation.NewLexiconScorer(), sealer)
	proximity := core.NewProximityNotifier(presence, 5000)
	return NewHub(presence, directory, limiter, pipeline, proximity, NewBroadcastRouter(), compliance.Discard{})
}

func join(h *Hub, sid domain.SessionID, name, room string, loc *domain.Location) *fakeConn {
	conn := &fakeConn{}
	h.Connect(sid, conn)
	h.Join(context.Background(), sid, JoinPayload{
		Name: name, Contact: name + "@x", Room: room, Location: loc,
		ReportedAt: "2026-08-31T10:00:00Z",
	})
	return conn
}

func TestJoinEmitsAllUsersInJoinOrder(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", &domain.Location{Lat: 37.0, Lng: -122.0})
	bobConn := join(h, "s2", "bob", "room1", nil)

	// Alice saw bob connect.
	connected := aliceConn.typed(t, EvUserConnected)
	require.Len(t, connected, 1)
	assert.Equal(t, "bob", connected[0]["name"])

	// Bob's snapshot lists both, in join order.
	snaps := bobConn.typed(t, EvAllUsers)
	require.Len(t, snaps, 1)
	members := snaps[0]["members"].([]any)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].(map[string]any)["name"])
	assert.Equal(t, "bob", members[1].(map[string]any)["name"])

	// Bob did not get a user-connected for himself.
	assert.Empty(t, bobConn.typed(t, EvUserConnected))
}

func TestJoinWithoutRoomSoftFails(t *testing.T) {
	h := newTestHub(10, nil)

	conn := &fakeConn{}
	h.Connect("s1", conn)
	h.Join(context.Background(), "s1", JoinPayload{Name: "alice"})

	assert.Equal(t, 0, h.Presence().Len())
	assert.Empty(t, conn.frames, "invalid join emits nothing, not even an error")
}

func TestMessageRelayedToRoomWithMood(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)
	carolConn := join(h, "s3", "carol", "room2", nil)

	h.Message(context.Background(), "s1", MessagePayload{Name: "alice", Message: "this damn traffic is terrible"})

	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		msgs := conn.typed(t, EvNewMessage)
		require.Len(t, msgs, 1)
		assert.Equal(t, "this **** traffic is terrible", msgs[0]["message"])
		assert.Equal(t, "alice", msgs[0]["name"])

		moods := conn.typed(t, EvRoomMood)
		require.Len(t, moods, 1)
		assert.Equal(t, "negative", moods[0]["mood"])
	}
	assert.Empty(t, carolConn.typed(t, EvNewMessage), "other rooms do not see the message")
}

func TestMessageRateLimited(t *testing.T) {
	h := newTestHub(1, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	h.Message(context.Background(), "s1", MessagePayload{Name: "alice", Message: "first"})
	h.Message(context.Background(), "s1", MessagePayload{Name: "alice", Message: "second"})

	assert.Len(t, bobConn.typed(t, EvNewMessage), 1, "denied message is not broadcast")
	errs := aliceConn.typed(t, EvError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["reason"], "rate limit")
}

func TestMessageSealFailureRejectsSend(t *testing.T) {
	h := newTestHub(10, failingSealer{})

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	h.Message(context.Background(), "s1", MessagePayload{Name: "alice", Message: "secret plan"})

	assert.Empty(t, bobConn.typed(t, EvNewMessage), "unsealable message must not go out in plaintext")
	errs := aliceConn.typed(t, EvError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["reason"], "not sent")
}

func TestMessageSealedPayload(t *testing.T) {
	h := newTestHub(10, prefixSealer{})

	join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	h.Message(context.Background(), "s1", MessagePayload{Name: "alice", Message: "hello"})

	msgs := bobConn.typed(t, EvNewMessage)
	require.Len(t, msgs, 1)
	// []byte marshals as base64.
	assert.NotEmpty(t, msgs[0]["payload"])
}

type prefixSealer struct{}

func (prefixSealer) Seal(p []byte) ([]byte, error) { return append([]byte("x:"), p...), nil }

func TestDisconnectSettlesRoom(t *testing.T) {
	h := newTestHub(10, nil)

	join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	h.Disconnect(context.Background(), "s1")

	gone := bobConn.typed(t, EvUserDisconnected)
	require.Len(t, gone, 1)
	assert.Equal(t, "alice", gone[0]["name"])

	snaps := bobConn.typed(t, EvAllUsers)
	last := snaps[len(snaps)-1]
	members := last["members"].([]any)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].(map[string]any)["name"])

	_, ok := h.Presence().Find("alice")
	assert.False(t, ok)
}

func TestDisconnectBeforeJoinIsHarmless(t *testing.T) {
	h := newTestHub(10, nil)

	conn := &fakeConn{}
	h.Connect("s1", conn)
	h.Disconnect(context.Background(), "s1")

	assert.Equal(t, 0, h.Presence().Len())
}

func TestSupersedingJoinMovesRooms(t *testing.T) {
	h := newTestHub(10, nil)

	join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	// Alice rejoins into a different room on a new connection.
	join(h, "s3", "alice", "room2", nil)

	gone := bobConn.typed(t, EvUserDisconnected)
	require.Len(t, gone, 1)
	assert.Equal(t, "alice", gone[0]["name"])

	require.Equal(t, 2, h.Presence().Len())
	alice, ok := h.Presence().Find("alice")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room2"), alice.Room)
	assert.Equal(t, domain.SessionID("s3"), alice.Session)
}

func TestNearbyUserOnJoin(t *testing.T) {
	h := newTestHub(10, nil)

	bobConn := join(h, "s1", "bob", "room2", &domain.Location{Lat: 0, Lng: 0.001})
	join(h, "s2", "alice", "room1", &domain.Location{Lat: 0, Lng: 0})

	nearby := bobConn.typed(t, EvNearbyUser)
	require.Len(t, nearby, 1)
	assert.Equal(t, "alice", nearby[0]["name"])
	assert.InDelta(t, 111.2, nearby[0]["distanceMeters"].(float64), 1.0)
}

func TestNearbySameRoomNoNotification(t *testing.T) {
	h := newTestHub(10, nil)

	bobConn := join(h, "s1", "bob", "room1", &domain.Location{Lat: 0, Lng: 0.001})
	join(h, "s2", "alice", "room1", &domain.Location{Lat: 0, Lng: 0})

	assert.Empty(t, bobConn.typed(t, EvNearbyUser))
}

func TestPrivateMessageDelivery(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room2", nil)

	h.Private("s1", PrivatePayload{From: "alice", To: "bob", Message: "psst"})

	got := bobConn.typed(t, EvPrivateMessage)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0]["from"])
	assert.Equal(t, "psst", got[0]["message"])

	h.Private("s1", PrivatePayload{From: "alice", To: "ghost", Message: "anyone?"})
	errs := aliceConn.typed(t, EvError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["reason"], "ghost")
}

func TestTypingRelayedToRoomExceptSender(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room1", nil)

	h.Typing("s1", TypingPayload{Name: "alice", Room: "room1", IsTyping: true})

	got := bobConn.typed(t, EvUserTyping)
	require.Len(t, got, 1)
	assert.Equal(t, true, got[0]["isTyping"])
	assert.Empty(t, aliceConn.typed(t, EvUserTyping))
}

func TestCallSignalingRelay(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room2", nil)

	h.CallInitiate("s1", CallInitiatePayload{
		TargetName:    "bob",
		SignalPayload: json.RawMessage(`{"sdp":"offer"}`),
		FromName:      "alice",
		DisplayName:   "Alice A",
	})

	incoming := bobConn.typed(t, EvCallIncoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, "Alice A", incoming[0]["displayName"])

	h.CallAnswer("s2", CallAnswerPayload{Data: CallAnswerData{
		TargetName: "alice", MediaType: "video", MyMediaStatus: true,
	}})

	accepted := aliceConn.typed(t, EvCallAccepted)
	require.Len(t, accepted, 1)

	updated := aliceConn.typed(t, EvMediaUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, "video", updated[0]["mediaType"])

	h.CallInitiate("s1", CallInitiatePayload{TargetName: "ghost"})
	errs := aliceConn.typed(t, EvError)
	require.Len(t, errs, 1)
}

func TestMediaUpdateBroadcast(t *testing.T) {
	h := newTestHub(10, nil)

	aliceConn := join(h, "s1", "alice", "room1", nil)
	bobConn := join(h, "s2", "bob", "room2", nil)

	h.MediaUpdate("s1", MediaUpdatePayload{MediaType: "audio", MediaStatus: false})

	got := bobConn.typed(t, EvMediaUpdated)
	require.Len(t, got, 1)
	assert.Equal(t, "audio", got[0]["mediaType"])
	assert.Empty(t, aliceConn.typed(t, EvMediaUpdated))
}

func TestMessageFromUnjoinedSender(t *testing.T) {
	h := newTestHub(10, nil)

	conn := &fakeConn{}
	h.Connect("s1", conn)
	h.Message(context.Background(), "s1", MessagePayload{Name: "stranger", Message: "hi"})

	errs := conn.typed(t, EvError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["reason"], "join a room")
}
