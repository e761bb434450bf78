package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginix-arcade/arcade_api/model"
	"github.com/ginix-arcade/arcade_api/shared"
)

// QuestService advances per-player counters against active quest
// definitions. Completion is a one-way transition enforced with a
// conditional update, so the paired XP grant happens exactly once even under
// concurrent submissions.
type QuestService struct {
	context.DefaultService

	sqlSvc *SqlService
}

const QUEST_SVC = "quest_svc"

func (svc QuestService) Id() string {
	return QUEST_SVC
}

func (svc *QuestService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	return nil
}

// CompletedQuest reports a quest finished by this submission.
type CompletedQuest struct {
	QuestID  string
	Name     string
	XPReward int64
}

// UpdateProgress runs inside the submission transaction. play_games quests
// advance by one per valid submission; reach_score quests complete outright
// when the score clears the requirement.
func (svc *QuestService) UpdateProgress(tx *gorm.DB, wallet, gameID string, score int64) ([]CompletedQuest, error) {
	var quests []model.Quest
	if err := tx.Where("active = ?", true).Find(&quests).Error; err != nil {
		return nil, err
	}

	var completed []CompletedQuest

	for _, quest := range quests {
		switch quest.RequirementType {
		case shared.QuestTypePlayGames:
			done, err := svc.advancePlayCount(tx, wallet, quest)
			if err != nil {
				return nil, err
			}
			if done {
				completed = append(completed, CompletedQuest{QuestID: quest.ID, Name: quest.Name, XPReward: quest.XPReward})
			}
		case shared.QuestTypeReachScore:
			if score < quest.RequirementValue {
				continue
			}
			done, err := svc.completeScoreQuest(tx, wallet, quest)
			if err != nil {
				return nil, err
			}
			if done {
				completed = append(completed, CompletedQuest{QuestID: quest.ID, Name: quest.Name, XPReward: quest.XPReward})
			}
		default:
			log.WithField("quest", quest.ID).Warnf("Unknown requirement type %s", quest.RequirementType)
		}
	}

	return completed, nil
}

func (svc *QuestService) advancePlayCount(tx *gorm.DB, wallet string, quest model.Quest) (bool, error) {
	now := time.Now()
	row := &model.PlayerQuest{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		QuestID:       quest.ID,
		Progress:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}, {Name: "quest_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"progress":   gorm.Expr("progress + 1"),
			"updated_at": now,
		}),
	}).Create(row).Error
	if err != nil {
		return false, err
	}

	var pq model.PlayerQuest
	if err := tx.Where("wallet_address = ? AND quest_id = ?", wallet, quest.ID).First(&pq).Error; err != nil {
		return false, err
	}
	if pq.Completed || pq.Progress < quest.RequirementValue {
		return false, nil
	}

	return svc.markCompleted(tx, wallet, quest)
}

func (svc *QuestService) completeScoreQuest(tx *gorm.DB, wallet string, quest model.Quest) (bool, error) {
	now := time.Now()
	row := &model.PlayerQuest{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		QuestID:       quest.ID,
		Progress:      quest.RequirementValue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}, {Name: "quest_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"progress":   quest.RequirementValue,
			"updated_at": now,
		}),
	}).Create(row).Error
	if err != nil {
		return false, err
	}

	return svc.markCompleted(tx, wallet, quest)
}

// markCompleted flips completed false→true with a conditional update; only
// the caller whose UPDATE matched grants the XP.
func (svc *QuestService) markCompleted(tx *gorm.DB, wallet string, quest model.Quest) (bool, error) {
	now := time.Now()
	res := tx.Model(&model.PlayerQuest{}).
		Where("wallet_address = ? AND quest_id = ? AND completed = ?", wallet, quest.ID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := tx.Model(&model.Player{}).
		Where("wallet_address = ?", wallet).
		UpdateColumn("xp", gorm.Expr("xp + ?", quest.XPReward)).Error
	return err == nil, err
}
