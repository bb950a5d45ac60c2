package models

import "time"

// GameHistory is one player's result in one finished game.
type GameHistory struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PlayerID       string    `json:"player_id" gorm:"not null;index;size:64"`
	Score          int       `json:"score" gorm:"not null"`
	Rank           int       `json:"rank" gorm:"not null"`
	CorrectAnswers int       `json:"correct_answers" gorm:"not null"`
	TotalQuestions int       `json:"total_questions" gorm:"not null"`
	Category       string    `json:"category"`
	Difficulty     string    `json:"difficulty"`
	PlayedAt       time.Time `json:"played_at" gorm:"not null;index"`
}
