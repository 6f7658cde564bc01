package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoyapp/convoy/internal/domain"
)

func ident(name string, room domain.RoomID) domain.Identity {
	return domain.Identity{Name: name, Room: room, Session: domain.SessionID("sid-" + name)}
}

func TestPresenceAddAndMembersOrder(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))
	s.Add(ident("bob", "room1"))
	s.Add(ident("carol", "room2"))

	members := s.Members("room1")
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)
	assert.Equal(t, "bob", members[1].Name)
}

func TestPresenceLastWriteWins(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))

	moved := ident("alice", "room2")
	moved.Contact = "alice@new"
	prev := s.Add(moved)

	require.NotNil(t, prev)
	assert.Equal(t, domain.RoomID("room1"), prev.Room)

	got, ok := s.Find("alice")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room2"), got.Room)
	assert.Equal(t, "alice@new", got.Contact)

	assert.Empty(t, s.Members("room1"))
	assert.Len(t, s.Members("room2"), 1)
	assert.Equal(t, 1, s.Len())
}

func TestPresenceRejoinSameRoomKeepsPosition(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))
	s.Add(ident("bob", "room1"))

	again := ident("alice", "room1")
	again.Contact = "a2@x"
	s.Add(again)

	members := s.Members("room1")
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)
	assert.Equal(t, "a2@x", members[0].Contact)
}

func TestPresenceRemoveUnknownIsNoop(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))

	_, ok := s.Remove("ghost")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestPresenceFindBySession(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))

	got, ok := s.FindBySession("sid-alice")
	require.True(t, ok)
	assert.Equal(t, "alice", got.Name)

	_, ok = s.FindBySession("sid-ghost")
	assert.False(t, ok)
}

func TestPresenceRemove(t *testing.T) {
	s := NewPresenceStore()
	s.Add(ident("alice", "room1"))
	s.Add(ident("bob", "room1"))

	removed, ok := s.Remove("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", removed.Name)

	members := s.Members("room1")
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].Name)
}
