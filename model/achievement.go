package model

import "time"

// Achievement is the append-only grant ledger. The unique index over
// (wallet, game, type) is the sole idempotency guard against double-granting:
// concurrent evaluations race on the insert and exactly one wins.
//
// GameID holds the real game id for in-game reward grants and the "badge"
// sentinel for badge grants. TxHash stays nil until an on-chain mint
// succeeds; a row without a hash is an earned, off-chain grant, not an error.
type Achievement struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	WalletAddress string     `json:"wallet_address" gorm:"not null;uniqueIndex:idx_achievement_grant;size:64"`
	GameID        string     `json:"game_id" gorm:"not null;uniqueIndex:idx_achievement_grant;size:64"`
	Type          string     `json:"type" gorm:"not null;uniqueIndex:idx_achievement_grant;size:64"`
	RewardID      string     `json:"reward_id" gorm:"not null"`
	Score         int64      `json:"score" gorm:"not null"`
	TxHash        *string    `json:"tx_hash,omitempty" gorm:"size:80"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	MintedAt      *time.Time `json:"minted_at,omitempty"`
}
