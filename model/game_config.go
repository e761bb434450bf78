package model

import "time"

// GameConfig mirrors the per-game anti-cheat rule table for operators; the
// validator itself works off the in-memory rule set loaded at startup.
type GameConfig struct {
	GameID            string    `json:"game_id" gorm:"primaryKey;size:64"`
	Name              string    `json:"name" gorm:"not null"`
	Category          string    `json:"category"`
	Description       string    `json:"description" gorm:"type:text"`
	MaxScore          int64     `json:"max_score" gorm:"not null"`
	MinDuration       int64     `json:"min_duration" gorm:"not null"`
	MaxScorePerSecond float64   `json:"max_score_per_second" gorm:"not null"`
	Active            bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null"`
}
