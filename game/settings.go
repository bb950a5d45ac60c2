package game

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMaxPlayers       = 10
	DefaultMinPlayers       = 1
	DefaultQuestionCount    = 10
	DefaultQuestionDuration = 15 * time.Second

	// MixedLabel is recorded in stats when a room has no category or difficulty filter.
	MixedLabel = "Mixed"
)

// Settings is the per-room configuration captured at creation. It never changes afterwards.
type Settings struct {
	MaxPlayers       int           `json:"maxPlayers"`
	MinPlayers       int           `json:"minPlayers"`
	QuestionCount    int           `json:"questionCount"`
	QuestionDuration time.Duration `json:"-"`
	Category         string        `json:"category,omitempty"`
	Difficulty       string        `json:"difficulty,omitempty"`
}

// DefaultSettings returns the settings used when a creator leaves a field unset.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:       DefaultMaxPlayers,
		MinPlayers:       DefaultMinPlayers,
		QuestionCount:    DefaultQuestionCount,
		QuestionDuration: DefaultQuestionDuration,
	}
}

// WithDefaults fills every zero field of s from d.
func (s Settings) WithDefaults(d Settings) Settings {
	if s.MaxPlayers <= 0 {
		s.MaxPlayers = d.MaxPlayers
	}
	if s.MinPlayers <= 0 {
		s.MinPlayers = d.MinPlayers
	}
	if s.QuestionCount <= 0 {
		s.QuestionCount = d.QuestionCount
	}
	if s.QuestionDuration <= 0 {
		s.QuestionDuration = d.QuestionDuration
	}
	return s
}

func (s Settings) categoryLabel() string {
	if s.Category == "" {
		return MixedLabel
	}
	return s.Category
}

func (s Settings) difficultyLabel() string {
	if s.Difficulty == "" {
		return MixedLabel
	}
	return s.Difficulty
}

// HostLeavePolicy decides what happens to a running room when its host disconnects.
type HostLeavePolicy int

const (
	// HostLeaveKeepRunning lets the game continue without a host.
	HostLeaveKeepRunning HostLeavePolicy = iota
	// HostLeaveEndGame evicts the room as soon as the host disconnects.
	HostLeaveEndGame
)

func (p HostLeavePolicy) String() string {
	if p == HostLeaveEndGame {
		return "end"
	}
	return "keep"
}

// ParseHostLeavePolicy accepts "keep" or "end".
func ParseHostLeavePolicy(s string) (HostLeavePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return HostLeaveKeepRunning, nil
	case "end":
		return HostLeaveEndGame, nil
	default:
		return HostLeaveKeepRunning, fmt.Errorf("unknown host leave policy %q", s)
	}
}
