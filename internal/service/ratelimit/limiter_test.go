package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstAndRefill(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := New(2, 1)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are independent")

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_Prune(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := New(1, 1)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	assert.Equal(t, 0, l.Prune(time.Minute))

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, l.Prune(time.Minute))
}
