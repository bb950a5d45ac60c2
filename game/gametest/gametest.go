// Package gametest provides deterministic collaborators for exercising rooms.
package gametest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"quizarena/game"
)

// ManualClock is a clockwork fake whose Advance returns only after every
// callback that fell due has finished, including callbacks scheduled by
// earlier ones inside the same window.
type ManualClock struct {
	*clockwork.FakeClock

	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clockwork.Timer
	at      time.Time
	done    chan struct{}
	stopped chan struct{}
}

func (t *manualTimer) Stop() bool {
	if !t.Timer.Stop() {
		return false
	}
	close(t.stopped)
	return true
}

func (t *manualTimer) settled() bool {
	select {
	case <-t.done:
		return true
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// NewManualClock starts at a fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{FakeClock: clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))}
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	t := &manualTimer{
		at:      c.Now().Add(d),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	t.Timer = c.FakeClock.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

// Advance moves time forward by d one due timer at a time.
func (c *ManualClock) Advance(d time.Duration) {
	target := c.Now().Add(d)
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.FakeClock.Advance(max(next.at.Sub(c.Now()), 0))
		select {
		case <-next.done:
		case <-next.stopped:
		}
	}
	if rest := target.Sub(c.Now()); rest > 0 {
		c.FakeClock.Advance(rest)
	}
}

func (c *ManualClock) nextDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = slices.DeleteFunc(c.timers, (*manualTimer).settled)
	if len(c.timers) == 0 {
		return nil
	}
	next := slices.MinFunc(c.timers, func(a, b *manualTimer) int { return a.at.Compare(b.at) })
	if next.at.After(target) {
		return nil
	}
	return next
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = slices.DeleteFunc(c.timers, (*manualTimer).settled)
	return len(c.timers)
}

// StaticSource serves questions from a fixed list, in order, and scores with
// game.CalculatePoints.
type StaticSource struct {
	mu        sync.Mutex
	Questions []game.Question
	Err       error
	Calls     int
}

func (s *StaticSource) GetQuestions(_ context.Context, count int, difficulty, category string) ([]game.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	var out []game.Question
	for _, q := range s.Questions {
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		if category != "" && q.Category != category {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func (s *StaticSource) CalculatePoints(base int, elapsed, duration time.Duration) int {
	return game.CalculatePoints(base, elapsed, duration)
}

// Questions builds n playable questions worth 100 points whose correct answer is option 0.
func Questions(n int) []game.Question {
	out := make([]game.Question, 0, n)
	for i := range n {
		out = append(out, game.Question{
			ID:            uint(i + 1),
			Prompt:        fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"right", "wrong", "wronger", "wrongest"},
			CorrectAnswer: 0,
			Category:      "Science",
			Difficulty:    "easy",
			Points:        100,
		})
	}
	return out
}

// Result is one recorded stats call.
type Result struct {
	PlayerID   string
	PlayerName string
	Result     game.GameResult
}

// RecordingStats is a StatsSink that remembers every call.
type RecordingStats struct {
	mu      sync.Mutex
	results []Result
	Err     error
}

func (s *RecordingStats) RecordGameResult(_ context.Context, playerID, playerName string, result game.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, Result{playerID, playerName, result})
	return s.Err
}

// Results returns the calls recorded so far, ordered by rank.
func (s *RecordingStats) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.results)
	slices.SortFunc(out, func(a, b Result) int { return a.Result.Rank - b.Result.Rank })
	return out
}

// Recorder collects notifier events.
type Recorder struct {
	mu     sync.Mutex
	events []game.Event
}

func (r *Recorder) Notify(ev game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything notified so far.
func (r *Recorder) Events() []game.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Count returns how many events of type T were notified.
func Count[T game.Event](r *Recorder) int {
	n := 0
	for _, ev := range r.Events() {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}
