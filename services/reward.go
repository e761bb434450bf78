package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ginix-arcade/arcade_api/model"
)

// RewardRule is one threshold in a game's ordered bonus list.
type RewardRule struct {
	Type     string
	MinScore int64
	XP       int64
}

// DefaultRewardRules returns the static per-game rule lists. Order matters:
// the engine returns the first qualifying, ungranted rule only, so a single
// submission grants at most one bonus and XP accounting stays auditable.
func DefaultRewardRules() map[string][]RewardRule {
	return map[string][]RewardRule{
		"neon-sky-runner": {
			{Type: "NEON_BADGE", MinScore: 2000, XP: 100},
			{Type: "SKY_MASTER", MinScore: 5000, XP: 250},
		},
		"tilenova": {
			{Type: "CIRCUIT_TROPHY", MinScore: 5000, XP: 150},
			{Type: "QUANTUM_MASTER", MinScore: 10000, XP: 300},
		},
		"flappy": {
			{Type: "FLAPPY_ROOKIE", MinScore: 10, XP: 50},
			{Type: "PIPE_MASTER", MinScore: 50, XP: 200},
		},
	}
}

// Reward is the engine's decision; the caller commits it (ledger row + XP)
// atomically with the rest of the submission, before any signing attempt.
type Reward struct {
	Type     string
	RewardID string
	XP       int64
}

type RewardService struct {
	context.DefaultService

	rules map[string][]RewardRule

	sqlSvc *SqlService
}

const REWARD_SVC = "reward_svc"

func (svc RewardService) Id() string {
	return REWARD_SVC
}

func (svc *RewardService) Configure(ctx *context.Context) error {
	svc.rules = DefaultRewardRules()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RewardService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	return nil
}

// SetRules substitutes the rule set (tests).
func (svc *RewardService) SetRules(rules map[string][]RewardRule) {
	svc.rules = rules
}

// Evaluate returns the first rule the score satisfies that has no ledger row
// yet, or nil. The existence check here is advisory; the real idempotency
// guard is the unique constraint hit by Grant.
func (svc *RewardService) Evaluate(db *gorm.DB, wallet, gameID string, score int64) (*Reward, error) {
	rules, ok := svc.rules[gameID]
	if !ok {
		return nil, nil
	}

	for _, rule := range rules {
		if score < rule.MinScore {
			continue
		}

		var count int64
		err := db.Model(&model.Achievement{}).
			Where("wallet_address = ? AND game_id = ? AND type = ?", wallet, gameID, rule.Type).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return &Reward{
				Type:     rule.Type,
				RewardID: RewardTypeToID(rule.Type).Hex(),
				XP:       rule.XP,
			}, nil
		}
	}

	return nil, nil
}

// Grant inserts the ledger row and the XP bump in the caller's transaction.
// A duplicate-key failure means a concurrent submission already granted this
// reward; the caller should drop the reward from its response.
func (svc *RewardService) Grant(tx *gorm.DB, wallet, gameID string, score int64, reward *Reward) error {
	achievement := &model.Achievement{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		GameID:        gameID,
		Type:          reward.Type,
		RewardID:      reward.RewardID,
		Score:         score,
		CreatedAt:     time.Now(),
	}
	if err := tx.Create(achievement).Error; err != nil {
		return err
	}

	return tx.Model(&model.Player{}).
		Where("wallet_address = ?", wallet).
		UpdateColumn("xp", gorm.Expr("xp + ?", reward.XP)).Error
}
