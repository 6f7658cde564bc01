package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/convoyapp/convoy/internal/cache"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	l := NewRateLimiter(cache.NewMemory(), 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow(ctx, "alice"), "send %d should be allowed", i+1)
	}
	assert.False(t, l.Allow(ctx, "alice"), "11th send in the window should be denied")
}

func TestRateLimiterPerName(t *testing.T) {
	l := NewRateLimiter(cache.NewMemory(), 1, time.Minute)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "alice"))
	assert.False(t, l.Allow(ctx, "alice"))
	assert.True(t, l.Allow(ctx, "bob"), "bob has his own window")
}

func TestRateLimiterWindowExpiryResets(t *testing.T) {
	l := NewRateLimiter(cache.NewMemory(), 2, 30*time.Millisecond)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "alice"))
	assert.True(t, l.Allow(ctx, "alice"))
	assert.False(t, l.Allow(ctx, "alice"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow(ctx, "alice"), "first send of a new window succeeds")
}

func TestRateLimiterDenyDoesNotExtendWindow(t *testing.T) {
	l := NewRateLimiter(cache.NewMemory(), 1, 50*time.Millisecond)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "alice"))
	// Hammering while denied must not push the expiry out.
	for i := 0; i < 5; i++ {
		assert.False(t, l.Allow(ctx, "alice"))
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow(ctx, "alice"))
}

func TestRateLimiterCounterDownFailsOpen(t *testing.T) {
	kv := newFakeCache()
	kv.fail = true
	l := NewRateLimiter(kv, 1, time.Minute)

	assert.True(t, l.Allow(context.Background(), "alice"))
	assert.True(t, l.Allow(context.Background(), "alice"))
}
