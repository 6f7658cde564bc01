package app

import (
	"encoding/json"

	"github.com/convoyapp/convoy/internal/domain"
)

// Inbound event types.
const (
	EvJoinRoom       = "join-room"
	EvSendMessage    = "send-message"
	EvPrivateMessage = "private-message"
	EvTyping         = "typing"
	EvCallInitiate   = "call-initiate"
	EvMediaUpdate    = "media-update"
	EvCallAnswer     = "call-answer"
)

// Outbound event types.
const (
	EvUserConnected    = "user-connected"
	EvAllUsers         = "all-users"
	EvNearbyUser       = "nearby-user"
	EvNewMessage       = "new-message"
	EvRoomMood         = "room-mood"
	EvUserTyping       = "user-typing"
	EvError            = "error"
	EvUserDisconnected = "user-disconnected"
	EvCallIncoming     = "call-incoming"
	EvMediaUpdated     = "media-updated"
	EvCallAccepted     = "call-accepted"
)

// Inbound payloads, one per event in the envelope switch. Validation
// tags are enforced by the hub before any state changes.

type JoinPayload struct {
	Name       string           `json:"name" validate:"required,max=64"`
	Contact    string           `json:"contact"`
	Room       string           `json:"room" validate:"required,max=64"`
	Location   *domain.Location `json:"location,omitempty"`
	ReportedAt string           `json:"reportedAt"`
}

type MessagePayload struct {
	Name       string           `json:"name" validate:"required"`
	Contact    string           `json:"contact"`
	Message    string           `json:"message"`
	Room       string           `json:"room"`
	Location   *domain.Location `json:"location,omitempty"`
	ReportedAt string           `json:"reportedAt"`
}

type PrivatePayload struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	Message string `json:"message"`
}

type TypingPayload struct {
	Name     string `json:"name" validate:"required"`
	Room     string `json:"room" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

type CallInitiatePayload struct {
	TargetName    string          `json:"targetName" validate:"required"`
	SignalPayload json.RawMessage `json:"signalPayload"`
	FromName      string          `json:"fromName"`
	DisplayName   string          `json:"displayName"`
}

type MediaUpdatePayload struct {
	MediaType   string `json:"mediaType"`
	MediaStatus bool   `json:"mediaStatus"`
}

type CallAnswerPayload struct {
	Data CallAnswerData `json:"data"`
}

type CallAnswerData struct {
	TargetName    string          `json:"targetName" validate:"required"`
	MediaType     string          `json:"mediaType"`
	MyMediaStatus bool            `json:"myMediaStatus"`
	Signal        json.RawMessage `json:"signal,omitempty"`
}

// Outbound events. Type is fixed per struct so adapters can marshal
// them without wrapping.

type UserConnected struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type AllUsers struct {
	Type    string            `json:"type"`
	Room    domain.RoomID     `json:"room"`
	Members []domain.Identity `json:"members"`
}

type NearbyUser struct {
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
}

type NewMessage struct {
	Type       string           `json:"type"`
	Name       string           `json:"name"`
	Contact    string           `json:"contact,omitempty"`
	Room       domain.RoomID    `json:"room"`
	Message    string           `json:"message"`
	Payload    []byte           `json:"payload,omitempty"`
	Location   *domain.Location `json:"location,omitempty"`
	ReportedAt string           `json:"reportedAt,omitempty"`
}

type RoomMood struct {
	Type string      `json:"type"`
	Mood domain.Mood `json:"mood"`
}

type UserTyping struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

type PrivateDelivery struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type UserDisconnected struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type CallIncoming struct {
	Type          string          `json:"type"`
	SignalPayload json.RawMessage `json:"signalPayload"`
	FromName      string          `json:"fromName"`
	DisplayName   string          `json:"displayName"`
}

type MediaUpdated struct {
	Type        string `json:"type"`
	MediaType   string `json:"mediaType"`
	MediaStatus bool   `json:"mediaStatus"`
}

type CallAccepted struct {
	Type string         `json:"type"`
	Data CallAnswerData `json:"data"`
}

func errorEvent(reason string) ErrorEvent {
	return ErrorEvent{Type: EvError, Reason: reason}
}
