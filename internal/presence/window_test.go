package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingLive(t *testing.T) {
	now := time.Now()

	assert.True(t, TypingLive(now.Add(-2*time.Second), now))
	assert.False(t, TypingLive(now.Add(-4*time.Second), now))
	assert.False(t, TypingLive(now.Add(-3*time.Second), now))
}

func TestOnlineLive(t *testing.T) {
	now := time.Now()

	recent := now.Add(-10 * time.Second)
	assert.True(t, OnlineLive(&recent, now))

	stale := now.Add(-31 * time.Second)
	assert.False(t, OnlineLive(&stale, now))

	assert.False(t, OnlineLive(nil, now))
}
