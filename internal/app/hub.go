package app

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/core"
	"github.com/convoyapp/convoy/internal/domain"
	"github.com/convoyapp/convoy/internal/metrics"
)

// Hub is the central event router. Each inbound event is handled to
// completion under one mutex, so presence mutations, their directory
// invalidation, and the emissions derived from them are observed
// atomically by every later event. Replaces per-connection nested
// handlers with per-session dispatch.
type Hub struct {
	mu sync.Mutex

	presence  *core.PresenceStore
	directory *core.RoomDirectory
	limiter   *core.RateLimiter
	pipeline  *core.ModerationPipeline
	proximity *core.ProximityNotifier
	router    *BroadcastRouter
	sink      core.ComplianceSink
	validate  *validator.Validate
}

func NewHub(
	presence *core.PresenceStore,
	directory *core.RoomDirectory,
	limiter *core.RateLimiter,
	pipeline *core.ModerationPipeline,
	proximity *core.ProximityNotifier,
	router *BroadcastRouter,
	sink core.ComplianceSink,
) *Hub {
	return &Hub{
		presence:  presence,
		directory: directory,
		limiter:   limiter,
		pipeline:  pipeline,
		proximity: proximity,
		router:    router,
		sink:      sink,
		validate:  validator.New(),
	}
}

func (h *Hub) Router() *BroadcastRouter { return h.router }

func (h *Hub) Presence() *core.PresenceStore { return h.presence }

// Connect registers a new transport session before any join.
func (h *Hub) Connect(sid domain.SessionID, conn core.SignalConnection) {
	h.router.Bind(sid, conn)
	metrics.ConnectedSessions.Inc()
}

// Join handles join-room. Invalid payloads soft-fail: the join does
// not happen and no event is emitted.
func (h *Hub) Join(ctx context.Context, sid domain.SessionID, p JoinPayload) {
	metrics.EventsTotal.WithLabelValues(EvJoinRoom).Inc()
	if err := h.validate.Struct(p); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("sid", string(sid)).Msg("join rejected")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room := domain.RoomID(p.Room)
	id := domain.Identity{
		Name:       p.Name,
		Contact:    p.Contact,
		Room:       room,
		Location:   p.Location,
		JoinedAt:   time.Now().Unix(),
		ReportedAt: p.ReportedAt,
		Session:    sid,
	}

	prev := h.presence.Add(id)
	h.directory.Invalidate(ctx, room)

	// A superseding join moves the name out of its old room; settle
	// that room's observers before announcing the new join.
	if prev != nil && prev.Room != room {
		h.directory.Invalidate(ctx, prev.Room)
		h.router.EmitToRoom(prev.Room, UserDisconnected{Type: EvUserDisconnected, Name: prev.Name})
		h.router.EmitToRoom(prev.Room, AllUsers{Type: EvAllUsers, Room: prev.Room, Members: h.directory.Members(ctx, prev.Room)})
	}

	h.router.JoinRoom(sid, p.Name, room)
	h.router.EmitToRoomExcept(room, sid, UserConnected{Type: EvUserConnected, Name: p.Name})
	h.router.EmitToRoom(room, AllUsers{Type: EvAllUsers, Room: room, Members: h.directory.Members(ctx, room)})

	for _, hit := range h.proximity.Scan(id) {
		h.router.EmitToRoom(hit.Room, NearbyUser{Type: EvNearbyUser, Name: id.Name, DistanceMeters: hit.Distance})
		metrics.NearbyNotifications.Inc()
	}
	log.Info().Str("module", "app.hub").Str("name", p.Name).Str("room", p.Room).Msg("joined")
}

// Message handles send-message: rate check first, then moderation,
// then relay. A denied or unsealable message produces an error event
// for the sender and nothing for the room.
func (h *Hub) Message(ctx context.Context, sid domain.SessionID, p MessagePayload) {
	metrics.EventsTotal.WithLabelValues(EvSendMessage).Inc()
	if err := h.validate.Struct(p); err != nil {
		h.router.EmitToSession(sid, errorEvent("invalid message payload"))
		return
	}

	// Cheap check before any moderation work.
	if !h.limiter.Allow(ctx, p.Name) {
		metrics.MessagesDenied.WithLabelValues("rate_limited").Inc()
		h.router.EmitToSession(sid, errorEvent("rate limit exceeded, slow down"))
		return
	}

	mod, err := h.pipeline.Process(p.Message)
	if err != nil {
		metrics.MessagesDenied.WithLabelValues("transform_unavailable").Inc()
		log.Error().Err(err).Str("module", "app.hub").Str("name", p.Name).Msg("payload transform failed")
		h.router.EmitToSession(sid, errorEvent("message could not be secured and was not sent"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room := domain.RoomID(p.Room)
	if sender, ok := h.presence.Find(p.Name); ok {
		room = sender.Room
	}
	if room == "" {
		h.router.EmitToSession(sid, errorEvent("join a room before sending messages"))
		return
	}

	h.sink.Append(time.Now(), p.Name, mod.Clean)

	h.router.EmitToRoom(room, NewMessage{
		Type:       EvNewMessage,
		Name:       p.Name,
		Contact:    p.Contact,
		Room:       room,
		Message:    mod.Clean,
		Payload:    mod.Payload,
		Location:   p.Location,
		ReportedAt: p.ReportedAt,
	})
	h.router.EmitToRoom(room, RoomMood{Type: EvRoomMood, Mood: mod.Mood})
	metrics.MessagesRelayed.Inc()
}

// Private handles private-message. An unknown recipient is reported to
// the sender, nothing is broadcast.
func (h *Hub) Private(sid domain.SessionID, p PrivatePayload) {
	metrics.EventsTotal.WithLabelValues(EvPrivateMessage).Inc()
	if err := h.validate.Struct(p); err != nil {
		h.router.EmitToSession(sid, errorEvent("invalid private message payload"))
		return
	}
	delivered := h.router.EmitToName(p.To, PrivateDelivery{Type: EvPrivateMessage, From: p.From, Message: p.Message})
	if !delivered {
		h.router.EmitToSession(sid, errorEvent("user not found: "+p.To))
	}
}

// Typing relays the indicator to the room, minus the typist.
func (h *Hub) Typing(sid domain.SessionID, p TypingPayload) {
	metrics.EventsTotal.WithLabelValues(EvTyping).Inc()
	if err := h.validate.Struct(p); err != nil {
		return
	}
	h.router.EmitToRoomExcept(domain.RoomID(p.Room), sid, UserTyping{Type: EvUserTyping, Name: p.Name, IsTyping: p.IsTyping})
}

// CallInitiate relays the opaque signaling payload to the callee's
// session.
func (h *Hub) CallInitiate(sid domain.SessionID, p CallInitiatePayload) {
	metrics.EventsTotal.WithLabelValues(EvCallInitiate).Inc()
	if err := h.validate.Struct(p); err != nil {
		h.router.EmitToSession(sid, errorEvent("invalid call payload"))
		return
	}
	ok := h.router.EmitToName(p.TargetName, CallIncoming{
		Type:          EvCallIncoming,
		SignalPayload: p.SignalPayload,
		FromName:      p.FromName,
		DisplayName:   p.DisplayName,
	})
	if !ok {
		h.router.EmitToSession(sid, errorEvent("user not found: "+p.TargetName))
	}
}

// MediaUpdate announces a media state change to everyone else.
func (h *Hub) MediaUpdate(sid domain.SessionID, p MediaUpdatePayload) {
	metrics.EventsTotal.WithLabelValues(EvMediaUpdate).Inc()
	h.router.EmitToAllExcept(sid, MediaUpdated{Type: EvMediaUpdated, MediaType: p.MediaType, MediaStatus: p.MediaStatus})
}

// CallAnswer relays acceptance to the caller and the answerer's media
// state to everyone else.
func (h *Hub) CallAnswer(sid domain.SessionID, p CallAnswerPayload) {
	metrics.EventsTotal.WithLabelValues(EvCallAnswer).Inc()
	if err := h.validate.Struct(p.Data); err != nil {
		h.router.EmitToSession(sid, errorEvent("invalid call answer payload"))
		return
	}
	h.router.EmitToAllExcept(sid, MediaUpdated{Type: EvMediaUpdated, MediaType: p.Data.MediaType, MediaStatus: p.Data.MyMediaStatus})
	if !h.router.EmitToName(p.Data.TargetName, CallAccepted{Type: EvCallAccepted, Data: p.Data}) {
		h.router.EmitToSession(sid, errorEvent("user not found: "+p.Data.TargetName))
	}
}

// Disconnect settles the departing session's room. Safe for sessions
// that never joined, and for sessions whose name was superseded by a
// later join on another connection.
func (h *Hub) Disconnect(ctx context.Context, sid domain.SessionID) {
	metrics.ConnectedSessions.Dec()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.router.Unbind(sid)
	id, ok := h.presence.FindBySession(sid)
	if !ok {
		log.Debug().Str("module", "app.hub").Str("sid", string(sid)).Msg("disconnect before join")
		return
	}
	h.presence.Remove(id.Name)
	h.directory.Invalidate(ctx, id.Room)
	h.router.EmitToRoom(id.Room, UserDisconnected{Type: EvUserDisconnected, Name: id.Name})
	h.router.EmitToRoom(id.Room, AllUsers{Type: EvAllUsers, Room: id.Room, Members: h.directory.Members(ctx, id.Room)})
	log.Info().Str("module", "app.hub").Str("name", id.Name).Str("room", string(id.Room)).Msg("disconnected")
}
