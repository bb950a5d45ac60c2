package game

import "github.com/jonboulle/clockwork"

// Clock is the time source rooms read and schedule against.
type Clock = clockwork.Clock

// Timer is a pending Clock.AfterFunc callback.
type Timer = clockwork.Timer

// SystemClock returns the wall clock.
func SystemClock() Clock { return clockwork.NewRealClock() }
