package seeders

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginix-arcade/arcade_api/model"
)

type GameConfigSeeder struct {
	db *gorm.DB
}

func NewGameConfigSeeder(db *gorm.DB) *GameConfigSeeder {
	return &GameConfigSeeder{db: db}
}

// SeedGameConfigs upserts the launch catalog with its validation bounds.
func (s *GameConfigSeeder) SeedGameConfigs() error {
	now := time.Now()

	games := []model.GameConfig{
		{
			GameID:            "neon-sky-runner",
			Name:              "Neon Sky Runner",
			Category:          "Endless Runner",
			Description:       "Race through neon-lit skies in this fast-paced endless runner.",
			MaxScore:          1000000,
			MinDuration:       5,
			MaxScorePerSecond: 500,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			GameID:            "tilenova",
			Name:              "TileNova Circuit Surge",
			Category:          "Puzzle",
			Description:       "Master the grid in this electrifying puzzle game.",
			MaxScore:          100000,
			MinDuration:       30,
			MaxScorePerSecond: 100,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			GameID:            "flappy",
			Name:              "Flappy Bird",
			Category:          "Arcade",
			Description:       "Navigate through pipes in this classic arcade game.",
			MaxScore:          500,
			MinDuration:       5,
			MaxScorePerSecond: 10,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			GameID:            "sudoku",
			Name:              "Sudoku: Roast Mode",
			Category:          "Puzzle",
			Description:       "Solve the grid while the announcer roasts your every move.",
			MaxScore:          3000,
			MinDuration:       30,
			MaxScorePerSecond: 50,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}

	for _, game := range games {
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "game_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "description",
				"max_score", "min_duration", "max_score_per_second",
				"active", "updated_at",
			}),
		}).Create(&game).Error
		if err != nil {
			return err
		}
		log.Printf("  Game: %s", game.Name)
	}

	return nil
}
