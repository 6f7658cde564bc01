package domain

// RoomID identifies a logical channel. An identity belongs to at most
// one room at a time.
type RoomID string
