package seeders

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginix-arcade/arcade_api/model"
	"github.com/ginix-arcade/arcade_api/shared"
)

type QuestSeeder struct {
	db *gorm.DB
}

func NewQuestSeeder(db *gorm.DB) *QuestSeeder {
	return &QuestSeeder{db: db}
}

// SeedQuests upserts the launch quest set.
func (s *QuestSeeder) SeedQuests() error {
	now := time.Now()

	quests := []model.Quest{
		{
			ID:               "first-game",
			Name:             "First Steps",
			Description:      "Play your first game",
			XPReward:         50,
			RequirementType:  shared.QuestTypePlayGames,
			RequirementValue: 1,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               "play-5-games",
			Name:             "Getting Started",
			Description:      "Play 5 games across any title",
			XPReward:         150,
			RequirementType:  shared.QuestTypePlayGames,
			RequirementValue: 5,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               "play-20-games",
			Name:             "Arcade Veteran",
			Description:      "Play 20 games across any title",
			XPReward:         500,
			RequirementType:  shared.QuestTypePlayGames,
			RequirementValue: 20,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               "neon-score-5000",
			Name:             "Neon Runner",
			Description:      "Score 5,000 or higher in Neon Sky Runner",
			XPReward:         200,
			RequirementType:  shared.QuestTypeReachScore,
			RequirementValue: 5000,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               "tilenova-score-5000",
			Name:             "Circuit Breaker",
			Description:      "Score 5,000 or higher in TileNova",
			XPReward:         200,
			RequirementType:  shared.QuestTypeReachScore,
			RequirementValue: 5000,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               "flappy-score-50",
			Name:             "Pipe Master",
			Description:      "Score 50 or higher in Flappy Bird",
			XPReward:         300,
			RequirementType:  shared.QuestTypeReachScore,
			RequirementValue: 50,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}

	for _, quest := range quests {
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "xp_reward",
				"requirement_type", "requirement_value",
				"active", "updated_at",
			}),
		}).Create(&quest).Error
		if err != nil {
			return err
		}
		log.Printf("  Quest: %s", quest.Name)
	}

	return nil
}
