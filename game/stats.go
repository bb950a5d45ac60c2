package game

import (
	"context"
	"time"
)

// GameResult is one player's outcome for a finished room.
type GameResult struct {
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correctAnswers"`
	TotalQuestions int            `json:"totalQuestions"`
	Rank           int            `json:"rank"`
	IsWinner       bool           `json:"isWinner"`
	FastestAnswer  *time.Duration `json:"fastestAnswer,omitempty"`
	Category       string         `json:"category"`
	Difficulty     string         `json:"difficulty"`
}

//go:generate go run go.uber.org/mock/mockgen -source=stats.go -destination=../mocks/mock_stats_sink.go -package=mocks

// StatsSink durably records per-player results. Rooms call it once per player
// when they finish; errors are logged and never block gameplay.
type StatsSink interface {
	RecordGameResult(ctx context.Context, playerID, playerName string, result GameResult) error
}

// NopStats discards every result.
type NopStats struct{}

func (NopStats) RecordGameResult(context.Context, string, string, GameResult) error { return nil }
