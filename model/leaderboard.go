package model

import "time"

// LeaderboardEntry keeps the best score per (game, wallet). Score is
// monotonically non-decreasing: it is only rewritten when a new score
// strictly exceeds the stored one.
type LeaderboardEntry struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	GameID        string    `json:"game_id" gorm:"not null;uniqueIndex:idx_leaderboard_game_wallet;size:64"`
	WalletAddress string    `json:"wallet_address" gorm:"not null;uniqueIndex:idx_leaderboard_game_wallet;size:64"`
	Score         int64     `json:"score" gorm:"not null"`
	Duration      int64     `json:"duration" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}
