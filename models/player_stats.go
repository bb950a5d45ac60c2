package models

import "time"

type PlayerStats struct {
	PlayerID            string         `json:"player_id" gorm:"primaryKey;size:64"`
	TotalGames          int            `json:"total_games" gorm:"not null;default:0;index"`
	Wins                int            `json:"wins" gorm:"not null;default:0"`
	TotalScore          int            `json:"total_score" gorm:"not null;default:0"`
	TotalCorrectAnswers int            `json:"total_correct_answers" gorm:"not null;default:0"`
	TotalQuestions      int            `json:"total_questions" gorm:"not null;default:0"`
	BestScore           int            `json:"best_score" gorm:"not null;default:0"`
	AverageScore        int            `json:"average_score" gorm:"not null;default:0"`
	WinRate             int            `json:"win_rate" gorm:"not null;default:0"` // percent
	Accuracy            int            `json:"accuracy" gorm:"not null;default:0"` // percent
	FastestAnswerMs     *int64         `json:"fastest_answer"`
	CategoriesPlayed    map[string]int `json:"categories_played" gorm:"serializer:json"`
	DifficultiesPlayed  map[string]int `json:"difficulties_played" gorm:"serializer:json"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
