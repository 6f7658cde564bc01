// Package domain contains entity without logic, just meta-data
package domain

type SessionID string

// Location is a reported lat/long pair. Absent location disables
// proximity checks for the identity.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Identity is the presence record of one connected session. Keyed by
// Name among currently-connected identities; a later join with the same
// name fully replaces the earlier record.
//
// JoinedAt is server-observed; ReportedAt is whatever timestamp the
// client supplied with the event. They are distinct fields on purpose.
type Identity struct {
	Name       string    `json:"name"`
	Contact    string    `json:"contact"`
	Room       RoomID    `json:"room"`
	Location   *Location `json:"location,omitempty"`
	JoinedAt   int64     `json:"joinedAt"`
	ReportedAt string    `json:"reportedAt,omitempty"`

	// Session is the transport handle the router uses to reach this
	// specific connection. Recorded at join time so disconnect can
	// always find the departing identity.
	Session SessionID `json:"-"`
}
