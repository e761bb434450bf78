package model

import "time"

type Quest struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"not null"`
	Description      string    `json:"description" gorm:"type:text"`
	XPReward         int64     `json:"xp_reward" gorm:"not null"`
	RequirementType  string    `json:"requirement_type" gorm:"not null;size:32"`
	RequirementValue int64     `json:"requirement_value" gorm:"not null"`
	Active           bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"not null"`
}

// PlayerQuest tracks per-wallet progress. Completed transitions false→true
// exactly once and is always paired with a single XP grant.
type PlayerQuest struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	WalletAddress string     `json:"wallet_address" gorm:"not null;uniqueIndex:idx_player_quest;size:64"`
	QuestID       string     `json:"quest_id" gorm:"not null;uniqueIndex:idx_player_quest"`
	Progress      int64      `json:"progress" gorm:"not null;default:0"`
	Completed     bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null"`
}
