package game

import "time"

// Event is emitted by a room outside of any inbound request, when one of its
// timers fires. Audience lists the connection ids that should receive it.
type Event interface {
	RoomCode() string
}

// Notifier receives timer-driven room events. Rooms call it after releasing their lock.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}

// QuestionView is a question as shown to players: the correct answer is withheld.
type QuestionView struct {
	Number         int       `json:"questionNumber"`
	TotalQuestions int       `json:"totalQuestions"`
	Prompt         string    `json:"question"`
	Options        []string  `json:"options"`
	Category       string    `json:"category"`
	Difficulty     string    `json:"difficulty"`
	Points         int       `json:"points"`
	DurationMs     int64     `json:"duration"`
	StartTime      time.Time `json:"startTime"`
}

// QuestionPresented fires when a question opens for answers.
type QuestionPresented struct {
	Code     string
	Question QuestionView
	Audience []string
}

// QuestionClosed fires when a question advances; the correct answer is now public.
type QuestionClosed struct {
	Code          string
	Number        int
	CorrectAnswer int
	Leaderboard   []Standing
	Audience      []string
}

// GameFinished fires once when the last question closes.
type GameFinished struct {
	Code     string
	Results  Results
	Audience []string
}

func (e QuestionPresented) RoomCode() string { return e.Code }
func (e QuestionClosed) RoomCode() string    { return e.Code }
func (e GameFinished) RoomCode() string      { return e.Code }
