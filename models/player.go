package models

import "time"

// Player is the durable profile behind a player id seen in a finished game.
type Player struct {
	ID         string     `json:"id" gorm:"primaryKey;size:64"`
	Name       string     `json:"name" gorm:"not null"`
	LastPlayed *time.Time `json:"last_played"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relationships
	Stats   PlayerStats   `json:"stats,omitempty" gorm:"foreignKey:PlayerID"`
	History []GameHistory `json:"history,omitempty" gorm:"foreignKey:PlayerID"`
}
