package core

import (
	"context"
	"errors"
	"time"

	"github.com/convoyapp/convoy/internal/domain"
)

// Frame is a marshaled outbound event.
type Frame []byte

var (
	ErrBackpressure   = errors.New("backpressure")
	ErrKeyUnavailable = errors.New("payload key unavailable")
)

// SignalConnection abstracts a session's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Cache is the external key-value collaborator for the room directory
// and the rate limiter. Implementations are eventually consistent with
// the presence store and are never the source of truth.
type Cache interface {
	// Get returns the value for key; ok is false on a miss. A non-nil
	// error means the backend itself is unavailable.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// IncrWithTTL atomically increments the counter at key and returns
	// the new value. The expiry window starts when the key is created
	// and is not extended by later increments.
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Cleaner scrubs flagged terms out of message text.
type Cleaner interface {
	Clean(text string) (string, error)
}

// Scorer classifies message text into a mood. Deterministic for
// identical input.
type Scorer interface {
	Score(text string) domain.Mood
}

// Sealer transforms the scrubbed text into the payload actually
// broadcast. Must fail explicitly when its key is unavailable.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
}

// ComplianceSink receives a copy of every relayed message.
// Fire-and-forget: failures never block or fail the send path.
type ComplianceSink interface {
	Append(ts time.Time, name, text string)
}
