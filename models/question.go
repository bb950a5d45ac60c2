package models

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Text       string         `json:"question" gorm:"not null"`
	Category   string         `json:"category" gorm:"not null;index"`
	Difficulty string         `json:"difficulty" gorm:"not null;index"` // easy, medium, hard
	Points     int            `json:"points" gorm:"not null;default:100"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}
