package core

import (
	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/domain"
	"github.com/convoyapp/convoy/internal/geo"
)

// Nearby is one cross-room proximity hit for a join.
type Nearby struct {
	Name     string
	Room     domain.RoomID
	Distance float64
}

// ProximityNotifier finds connected identities in other rooms within
// the distance threshold of a joining identity. A linear scan over all
// connected identities per join; fine at single-process presence
// scale.
type ProximityNotifier struct {
	presence *PresenceStore
	meters   float64
}

func NewProximityNotifier(presence *PresenceStore, meters float64) *ProximityNotifier {
	return &ProximityNotifier{presence: presence, meters: meters}
}

// Scan returns every identity in a different room than joined, with a
// known location, at most the threshold distance away. An identity
// without a location never matches.
func (n *ProximityNotifier) Scan(joined domain.Identity) []Nearby {
	if joined.Location == nil {
		return nil
	}
	var out []Nearby
	for _, other := range n.presence.All() {
		if other.Name == joined.Name || other.Room == joined.Room || other.Location == nil {
			continue
		}
		d := geo.Distance(*joined.Location, *other.Location)
		if d <= n.meters {
			out = append(out, Nearby{Name: other.Name, Room: other.Room, Distance: d})
		}
	}
	if len(out) > 0 {
		log.Debug().Str("module", "core.proximity").Str("name", joined.Name).Int("hits", len(out)).Msg("nearby identities found")
	}
	return out
}
