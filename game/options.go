package game

import (
	"log/slog"
	"time"
)

// Options carries the collaborators and timing shared by every room of a registry.
// Zero durations take their defaults.
type Options struct {
	Source   QuestionSource
	Stats    StatsSink
	Notifier Notifier
	Clock    Clock
	Logger   *slog.Logger

	Defaults Settings

	// StartDelay separates a successful start from the first question.
	StartDelay time.Duration
	// AdvanceDelay is the pause after every connected player has answered.
	AdvanceDelay time.Duration
	// TimeoutGrace is added to the question duration before a forced advance.
	TimeoutGrace time.Duration
	FetchTimeout time.Duration
	StatsTimeout time.Duration
	IdleTimeout  time.Duration

	HostLeave   HostLeavePolicy
	Spectators  bool
	Chat        bool
	ChatHistory int

	// CodeGenerator overrides the random room code generator.
	CodeGenerator func() (string, error)
}

func (o Options) withDefaults() Options {
	if o.Stats == nil {
		o.Stats = NopStats{}
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Defaults = o.Defaults.WithDefaults(DefaultSettings())
	if o.StartDelay <= 0 {
		o.StartDelay = 2 * time.Second
	}
	if o.AdvanceDelay <= 0 {
		o.AdvanceDelay = 3 * time.Second
	}
	if o.TimeoutGrace <= 0 {
		o.TimeoutGrace = time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 5 * time.Second
	}
	if o.StatsTimeout <= 0 {
		o.StatsTimeout = 5 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Minute
	}
	if o.ChatHistory <= 0 {
		o.ChatHistory = 50
	}
	if o.CodeGenerator == nil {
		o.CodeGenerator = NewCode
	}
	return o
}
