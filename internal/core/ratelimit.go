package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const rateKeyPrefix = "rate:"

// RateLimiter is a fixed-window per-name message counter over the
// cache's atomic increment. The window starts on the first send and is
// never extended by denied sends.
type RateLimiter struct {
	cache  Cache
	max    int64
	window time.Duration
}

func NewRateLimiter(cache Cache, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{cache: cache, max: int64(max), window: window}
}

// Allow reports whether name may send another message in the current
// window. A failing counter backend fails open: limiting is a
// protection, not a correctness guarantee, and a cache outage must not
// mute every sender.
func (l *RateLimiter) Allow(ctx context.Context, name string) bool {
	n, err := l.cache.IncrWithTTL(ctx, rateKeyPrefix+name, l.window)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.ratelimit").Str("name", name).Msg("counter unavailable, allowing")
		return true
	}
	if n > l.max {
		log.Debug().Str("module", "core.ratelimit").Str("name", name).Int64("count", n).Msg("denied")
		return false
	}
	return true
}
