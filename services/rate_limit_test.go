package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestRateLimiter_Global(t *testing.T) {
	req := require.New(t)
	clock := newFakeClock()
	l := NewRateLimiter(RateLimits{Window: time.Minute, Max: 3})
	l.clock = clock

	for range 3 {
		ok, _ := l.Allow("c1", EventPing)
		req.True(ok)
	}
	ok, wait := l.Allow("c1", EventPing)
	req.False(ok)
	req.InDelta(float64(20*time.Second), float64(wait), float64(time.Millisecond))

	ok, _ = l.Allow("c2", EventPing)
	req.True(ok, "budgets are per connection")

	clock.Advance(20 * time.Second)
	ok, _ = l.Allow("c1", EventPing)
	req.True(ok)

	l.Forget("c1")
	for range 3 {
		ok, _ := l.Allow("c1", EventPing)
		req.True(ok)
	}
}

func TestRateLimiter_Chat(t *testing.T) {
	req := require.New(t)
	clock := newFakeClock()
	l := NewRateLimiter(RateLimits{ChatInterval: time.Second})
	l.clock = clock

	ok, _ := l.Allow("c1", EventChatMessage)
	req.True(ok)
	ok, wait := l.Allow("c1", EventChatMessage)
	req.False(ok)
	req.InDelta(float64(time.Second), float64(wait), float64(time.Millisecond))

	ok, _ = l.Allow("c1", EventPing)
	req.True(ok, "chat limit does not block other events")

	clock.Advance(time.Second)
	ok, _ = l.Allow("c1", EventChatMessage)
	req.True(ok)
}

func TestRateLimiter_Answers(t *testing.T) {
	req := require.New(t)
	clock := newFakeClock()
	l := NewRateLimiter(RateLimits{AnswersPerSecond: 2})
	l.clock = clock

	for range 2 {
		ok, _ := l.Allow("c1", EventSubmitAnswer)
		req.True(ok)
	}
	ok, _ := l.Allow("c1", EventSubmitAnswer)
	req.False(ok)

	clock.Advance(time.Second)
	ok, _ = l.Allow("c1", EventSubmitAnswer)
	req.True(ok)
}
