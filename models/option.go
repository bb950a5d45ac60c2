package models

import "time"

type Option struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"not null;index"`
	Text       string    `json:"text" gorm:"not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null;default:false"`
	Order      int       `json:"order" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}
