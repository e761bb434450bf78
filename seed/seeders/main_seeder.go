package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	gameSeeder := NewGameConfigSeeder(s.db)
	if err := gameSeeder.SeedGameConfigs(); err != nil {
		log.Printf("Game config seeding failed: %v", err)
		return err
	}

	questSeeder := NewQuestSeeder(s.db)
	if err := questSeeder.SeedQuests(); err != nil {
		log.Printf("Quest seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) SeedGamesOnly() error {
	return NewGameConfigSeeder(s.db).SeedGameConfigs()
}

func (s *MainSeeder) SeedQuestsOnly() error {
	return NewQuestSeeder(s.db).SeedQuests()
}
