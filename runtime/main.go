package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ginix-arcade/arcade_api/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.SqlService{},
		&services.RedisService{},
		&services.MonitoringService{},
		&services.JWTService{},
		&services.SignerService{},
		&services.ChainService{},
		&services.MediaService{},
		&services.RateLimitService{},
		&services.AntiCheatService{},
		&services.SessionService{},
		&services.RewardService{},
		&services.QuestService{},
		&services.BadgeService{},
		&services.GameService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
