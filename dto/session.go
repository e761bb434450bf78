package dto

import "time"

type StartSessionRequest struct {
	Wallet string `json:"wallet" validate:"required,eth_address"`
	GameID string `json:"gameId" validate:"required,max=64"`
}

func (r StartSessionRequest) Validate() error {
	return validate.Struct(r)
}

type StartSessionResponse struct {
	SessionID string    `json:"sessionId"`
	Nonce     string    `json:"nonce"`
	StartedAt time.Time `json:"startedAt"`
}

type SubmitScoreRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	Wallet    string `json:"wallet" validate:"required,eth_address"`
	GameID    string `json:"gameId" validate:"required,max=64"`
	Score     int64  `json:"score" validate:"gte=0"`
	Duration  int64  `json:"duration" validate:"required,gte=1"`
}

func (r SubmitScoreRequest) Validate() error {
	return validate.Struct(r)
}

// RewardPayload is present only when this submission granted a bonus reward.
// Signature is null when the custody signer is unconfigured; the grant is
// still recorded off-chain.
type RewardPayload struct {
	Type      string  `json:"type"`
	RewardID  string  `json:"rewardId"`
	XP        int64   `json:"xp"`
	Signature *string `json:"signature"`
	Nonce     string  `json:"nonce"`
}

// BadgePayload carries TxHash only when the on-chain mint landed; an earned
// badge without a hash is still surfaced to the caller.
type BadgePayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tier   string  `json:"tier"`
	TxHash *string `json:"txHash,omitempty"`
}

type ScoreNFTPayload struct {
	TxHash  string `json:"txHash"`
	TokenID int64  `json:"tokenId"`
}

type SubmitScoreResponse struct {
	Success      bool             `json:"success"`
	AlreadyEnded bool             `json:"alreadyEnded,omitempty"`
	Valid        bool             `json:"valid"`
	Score        int64            `json:"score"`
	Duration     int64            `json:"duration"`
	XPEarned     int64            `json:"xpEarned"`
	Reward       *RewardPayload   `json:"reward"`
	NewBadges    []BadgePayload   `json:"newBadges"`
	ScoreNFT     *ScoreNFTPayload `json:"scoreNFT"`
}

type PlayerStatsResponse struct {
	WalletAddress  string           `json:"wallet_address"`
	XP             int64            `json:"xp"`
	SessionsPlayed int64            `json:"sessions_played"`
	HighScores     map[string]int64 `json:"high_scores"`
	Badges         []BadgeStatus    `json:"badges"`
}

type BadgeStatus struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Tier     string    `json:"tier"`
	EarnedAt time.Time `json:"earned_at"`
	Minted   bool      `json:"minted"`
	TxHash   *string   `json:"tx_hash,omitempty"`
}
