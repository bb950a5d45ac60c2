package game

import (
	"context"
	"math"
	"time"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Question is one multiple-choice item drawn from a QuestionSource.
type Question struct {
	ID            uint     `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
}

// Valid reports whether q can be played: exactly four options and an in-range answer.
func (q Question) Valid() bool {
	return len(q.Options) == OptionCount && q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}

//go:generate go run go.uber.org/mock/mockgen -source=question.go -destination=../mocks/mock_question_source.go -package=mocks

// QuestionSource supplies question batches and the scoring rule.
type QuestionSource interface {
	// GetQuestions returns up to count distinct questions in random order.
	// Empty difficulty or category means no filter.
	GetQuestions(ctx context.Context, count int, difficulty, category string) ([]Question, error)
	CalculatePoints(basePoints int, elapsed, duration time.Duration) int
}

// CalculatePoints awards basePoints plus a speed bonus of up to 50% that shrinks
// linearly to zero as elapsed approaches duration.
func CalculatePoints(basePoints int, elapsed, duration time.Duration) int {
	if duration <= 0 {
		return basePoints
	}
	remaining := 1 - float64(elapsed)/float64(duration)
	remaining = math.Min(1, math.Max(0, remaining))
	return int(math.Round(float64(basePoints) * (1 + remaining*0.5)))
}
