package model

import "time"

// Player is keyed by wallet address; created lazily on first session start.
// XP and SessionsPlayed only move forward and are mutated exclusively by the
// submission commit path.
type Player struct {
	WalletAddress  string    `json:"wallet_address" gorm:"primaryKey;size:64"`
	XP             int64     `json:"xp" gorm:"not null;default:0"`
	SessionsPlayed int64     `json:"sessions_played" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null"`
}
