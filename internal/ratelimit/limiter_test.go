package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledForNonPositiveRate(t *testing.T) {
	assert.Nil(t, New("openlibrary", 0))
	assert.Nil(t, New("openlibrary", -1))

	var l *Limiter
	require.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	assert.Empty(t, l.Name())
}

func TestLimiterSpacesRequests(t *testing.T) {
	l := New("openlibrary", 1)
	require.NotNil(t, l)
	assert.Equal(t, "openlibrary", l.Name())

	assert.True(t, l.Allow(), "first request uses the burst")
	assert.False(t, l.Allow(), "second request within the same second is held back")
}

func TestWaitHonoursContext(t *testing.T) {
	l := New("openlibrary", 0.001)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for openlibrary")
}

func TestNewWithBurst(t *testing.T) {
	l := NewWithBurst("burst", 1, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "request %d", i)
	}
	assert.False(t, l.Allow())

	l = NewWithBurst("clamped", 1, 0)
	assert.True(t, l.Allow())
}
