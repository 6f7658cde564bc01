package core

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/domain"
)

const roomKeyPrefix = "room:members:"

type localEntry struct {
	members []domain.Identity
	expires time.Time
}

// RoomDirectory is the cache-aside derived view of per-room membership.
// Read path: local cache, then external cache, then a fresh compute
// from the presence store written back to both. Correctness comes from
// explicit invalidation on every membership mutation; the TTLs are a
// performance bound only.
type RoomDirectory struct {
	presence *PresenceStore
	cache    Cache

	mu    sync.Mutex
	local map[domain.RoomID]localEntry

	localTTL time.Duration
	cacheTTL time.Duration
}

func NewRoomDirectory(presence *PresenceStore, cache Cache, localTTL, cacheTTL time.Duration) *RoomDirectory {
	return &RoomDirectory{
		presence: presence,
		cache:    cache,
		local:    make(map[domain.RoomID]localEntry),
		localTTL: localTTL,
		cacheTTL: cacheTTL,
	}
}

// Members returns the membership view for room. An empty room is a
// valid empty view, not an error. A failing external cache degrades to
// the presence store as the sole source of truth.
func (d *RoomDirectory) Members(ctx context.Context, room domain.RoomID) []domain.Identity {
	d.mu.Lock()
	if e, ok := d.local[room]; ok && time.Now().Before(e.expires) {
		members := e.members
		d.mu.Unlock()
		return members
	}
	d.mu.Unlock()

	if raw, ok, err := d.cache.Get(ctx, roomKey(room)); err != nil {
		log.Warn().Err(err).Str("module", "core.directory").Str("room", string(room)).Msg("cache unavailable, serving from presence store")
	} else if ok {
		var members []domain.Identity
		if err := json.Unmarshal(raw, &members); err == nil {
			d.storeLocal(room, members)
			return members
		}
		log.Warn().Str("module", "core.directory").Str("room", string(room)).Msg("undecodable cache entry, recomputing")
	}

	members := d.presence.Members(room)
	d.storeLocal(room, members)
	if raw, err := json.Marshal(members); err == nil {
		if err := d.cache.Set(ctx, roomKey(room), raw, d.cacheTTL); err != nil {
			log.Warn().Err(err).Str("module", "core.directory").Str("room", string(room)).Msg("cache writeback failed")
		}
	}
	return members
}

// Invalidate drops both cache layers for room. Must run in the same
// control-flow turn as the presence mutation, before any event for the
// room is emitted.
func (d *RoomDirectory) Invalidate(ctx context.Context, room domain.RoomID) {
	d.mu.Lock()
	delete(d.local, room)
	d.mu.Unlock()

	if err := d.cache.Delete(ctx, roomKey(room)); err != nil {
		log.Warn().Err(err).Str("module", "core.directory").Str("room", string(room)).Msg("cache invalidation failed")
	}
	log.Debug().Str("module", "core.directory").Str("room", string(room)).Msg("invalidated")
}

func (d *RoomDirectory) storeLocal(room domain.RoomID, members []domain.Identity) {
	d.mu.Lock()
	d.local[room] = localEntry{members: members, expires: time.Now().Add(d.localTTL)}
	d.mu.Unlock()
}

func roomKey(room domain.RoomID) string {
	return roomKeyPrefix + string(room)
}
