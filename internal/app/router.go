package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/core"
	"github.com/convoyapp/convoy/internal/domain"
)

type routeEntry struct {
	name string
	room domain.RoomID
	conn core.SignalConnection
}

// BroadcastRouter owns the mapping from sessions and rooms to
// transport connections and is the only place the core touches
// transport. Emission is fire-and-forget: a slow or closed peer drops
// the frame, never blocks the caller.
type BroadcastRouter struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*routeEntry
	byName   map[string]domain.SessionID
}

func NewBroadcastRouter() *BroadcastRouter {
	return &BroadcastRouter{
		sessions: make(map[domain.SessionID]*routeEntry),
		byName:   make(map[string]domain.SessionID),
	}
}

// Bind registers a freshly accepted connection with no identity yet.
func (r *BroadcastRouter) Bind(sid domain.SessionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &routeEntry{conn: conn}
	log.Info().Str("module", "app.router").Str("sid", string(sid)).Msg("session bound")
}

// JoinRoom binds sid to a name and room. A name previously held by
// another session moves to this one; the superseded session keeps its
// connection but is no longer addressable by name or room.
func (r *BroadcastRouter) JoinRoom(sid domain.SessionID, name string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return
	}
	if prev, held := r.byName[name]; held && prev != sid {
		if old, ok := r.sessions[prev]; ok {
			old.name = ""
			old.room = ""
		}
	}
	entry.name = name
	entry.room = room
	r.byName[name] = sid
	log.Info().Str("module", "app.router").Str("sid", string(sid)).Str("name", name).Str("room", string(room)).Msg("joined room")
}

// Unbind drops the session entirely and returns its last identity.
func (r *BroadcastRouter) Unbind(sid domain.SessionID) (name string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return "", ""
	}
	delete(r.sessions, sid)
	if entry.name != "" && r.byName[entry.name] == sid {
		delete(r.byName, entry.name)
	}
	log.Info().Str("module", "app.router").Str("sid", string(sid)).Msg("session unbound")
	return entry.name, entry.room
}

func (r *BroadcastRouter) EmitToSession(sid domain.SessionID, v any) {
	r.mu.RLock()
	entry, ok := r.sessions[sid]
	r.mu.RUnlock()
	if ok {
		r.send(entry, v)
	}
}

// EmitToName delivers to the session currently holding name. Reports
// whether such a session exists.
func (r *BroadcastRouter) EmitToName(name string, v any) bool {
	r.mu.RLock()
	sid, ok := r.byName[name]
	var entry *routeEntry
	if ok {
		entry, ok = r.sessions[sid]
	}
	r.mu.RUnlock()
	if !ok {
		return false
	}
	r.send(entry, v)
	return true
}

// EmitToRoom fans v out to every member of room. An empty room is a
// no-op.
func (r *BroadcastRouter) EmitToRoom(room domain.RoomID, v any) {
	r.emitRoom(room, "", v)
}

// EmitToRoomExcept is EmitToRoom minus one session.
func (r *BroadcastRouter) EmitToRoomExcept(room domain.RoomID, except domain.SessionID, v any) {
	r.emitRoom(room, except, v)
}

func (r *BroadcastRouter) EmitToAllExcept(except domain.SessionID, v any) {
	r.mu.RLock()
	targets := make([]*routeEntry, 0, len(r.sessions))
	for sid, entry := range r.sessions {
		if sid != except {
			targets = append(targets, entry)
		}
	}
	r.mu.RUnlock()
	for _, entry := range targets {
		r.send(entry, v)
	}
}

func (r *BroadcastRouter) EmitToAll(v any) {
	r.EmitToAllExcept("", v)
}

func (r *BroadcastRouter) emitRoom(room domain.RoomID, except domain.SessionID, v any) {
	r.mu.RLock()
	targets := make([]*routeEntry, 0, len(r.sessions))
	for sid, entry := range r.sessions {
		if entry.room == room && room != "" && sid != except {
			targets = append(targets, entry)
		}
	}
	r.mu.RUnlock()
	for _, entry := range targets {
		r.send(entry, v)
	}
}

func (r *BroadcastRouter) send(entry *routeEntry, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal event")
		return
	}
	if err := entry.conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app.router").Str("name", entry.name).Msg("frame dropped")
	}
}
