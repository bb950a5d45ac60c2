package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

type RateLimits struct {
	Window           time.Duration
	Max              int
	ChatInterval     time.Duration
	AnswersPerSecond int
}

type connLimiters struct {
	global *rate.Limiter
	chat   *rate.Limiter
	answer *rate.Limiter
}

// RateLimiter throttles inbound events per connection: a global budget for
// every event plus tighter budgets for chat and answers.
type RateLimiter struct {
	limits RateLimits
	clock  clockwork.Clock

	mu    sync.Mutex
	conns map[string]*connLimiters
}

func NewRateLimiter(limits RateLimits) *RateLimiter {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	if limits.Max <= 0 {
		limits.Max = 100
	}
	if limits.ChatInterval <= 0 {
		limits.ChatInterval = time.Second
	}
	if limits.AnswersPerSecond <= 0 {
		limits.AnswersPerSecond = 5
	}
	return &RateLimiter{limits: limits, clock: clockwork.NewRealClock(), conns: make(map[string]*connLimiters)}
}

func (l *RateLimiter) limitersFor(conn string) *connLimiters {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.conns[conn]
	if !ok {
		c = &connLimiters{
			global: rate.NewLimiter(rate.Every(l.limits.Window/time.Duration(l.limits.Max)), l.limits.Max),
			chat:   rate.NewLimiter(rate.Every(l.limits.ChatInterval), 1),
			answer: rate.NewLimiter(rate.Limit(l.limits.AnswersPerSecond), l.limits.AnswersPerSecond),
		}
		l.conns[conn] = c
	}
	return c
}

// Allow consumes one token for eventType. When denied it reports how long the
// caller should wait.
func (l *RateLimiter) Allow(conn, eventType string) (bool, time.Duration) {
	c := l.limitersFor(conn)
	now := l.clock.Now()

	if ok, wait := take(c.global, now); !ok {
		return false, wait
	}
	switch eventType {
	case EventChatMessage:
		return take(c.chat, now)
	case EventSubmitAnswer:
		return take(c.answer, now)
	}
	return true, 0
}

func (l *RateLimiter) Forget(conn string) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
}

func take(lim *rate.Limiter, now time.Time) (bool, time.Duration) {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}
