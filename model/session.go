package model

import "time"

// Session tracks one play-through. EndedAt, once set, is never cleared; the
// commit path closes a session with a single conditional update
// (WHERE ended_at IS NULL) so concurrent duplicate submissions race on the
// database row, not on application state.
type Session struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	WalletAddress string     `json:"wallet_address" gorm:"not null;index;size:64"`
	GameID        string     `json:"game_id" gorm:"not null;size:64"`
	Nonce         string     `json:"nonce" gorm:"not null;size:64"`
	StartedAt     time.Time  `json:"started_at" gorm:"not null"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Score         int64      `json:"score" gorm:"not null;default:0"`
	Duration      int64      `json:"duration" gorm:"not null;default:0"`
	Valid         bool       `json:"valid" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null"`
}
