package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindowRateLimiter(t *testing.T) {
	rl := NewFixedWindowLimiter(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 100*time.Millisecond, retryAfter)

	// Other clients have their own window.
	allowed, _ = rl.Allow("10.0.0.2")
	assert.True(t, allowed)

	time.Sleep(150 * time.Millisecond)

	allowed, _ = rl.Allow("10.0.0.1")
	assert.True(t, allowed, "window should have reset")
}
