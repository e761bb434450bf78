package services

import (
	"context"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/model"
	"github.com/ginix-arcade/arcade_api/shared"
)

// BadgeDef is a pure predicate over the player's lifetime stats plus the
// presentation fields minted into the badge NFT.
type BadgeDef struct {
	ID          string
	Name        string
	Description string
	Tier        string
	Category    string
	Value       int64
	Check       func(sessionsPlayed, xp int64, highScores map[string]int64) bool
}

// Badge category → contract achievement type.
var categoryToAchievementType = map[string]int64{
	"session":  AchievementMilestone,
	"xp":       AchievementMilestone,
	"flappy":   AchievementHighscore,
	"neon":     AchievementHighscore,
	"tilenova": AchievementHighscore,
	"sudoku":   AchievementHighscore,
	"multi":    AchievementSpecial,
}

// Badge category → numeric contract game id (0 = cross-game).
var categoryToGameIndex = map[string]int64{
	"flappy":   GameIndexes["flappy"],
	"neon":     GameIndexes["neon-sky-runner"],
	"tilenova": GameIndexes["tilenova"],
	"sudoku":   GameIndexes["sudoku"],
}

func DefaultBadgeDefs() []BadgeDef {
	atLeast := func(game string, min int64) func(int64, int64, map[string]int64) bool {
		return func(_, _ int64, h map[string]int64) bool { return h[game] >= min }
	}

	return []BadgeDef{
		{ID: "first-game", Name: "First Steps", Description: "Play your first game", Tier: shared.TierBronze, Category: "session", Value: 1,
			Check: func(s, _ int64, _ map[string]int64) bool { return s >= 1 }},
		{ID: "five-games", Name: "Getting Warmed Up", Description: "Play 5 games", Tier: shared.TierBronze, Category: "session", Value: 5,
			Check: func(s, _ int64, _ map[string]int64) bool { return s >= 5 }},
		{ID: "ten-games", Name: "Arcade Regular", Description: "Play 10 games", Tier: shared.TierSilver, Category: "session", Value: 10,
			Check: func(s, _ int64, _ map[string]int64) bool { return s >= 10 }},
		{ID: "twenty-five-games", Name: "Arcade Veteran", Description: "Play 25 games", Tier: shared.TierGold, Category: "session", Value: 25,
			Check: func(s, _ int64, _ map[string]int64) bool { return s >= 25 }},
		{ID: "fifty-games", Name: "Arcade Legend", Description: "Play 50 games", Tier: shared.TierPlatinum, Category: "session", Value: 50,
			Check: func(s, _ int64, _ map[string]int64) bool { return s >= 50 }},
		{ID: "xp-100", Name: "XP Hunter", Description: "Earn 100 XP", Tier: shared.TierBronze, Category: "xp", Value: 100,
			Check: func(_, x int64, _ map[string]int64) bool { return x >= 100 }},
		{ID: "xp-500", Name: "XP Warrior", Description: "Earn 500 XP", Tier: shared.TierSilver, Category: "xp", Value: 500,
			Check: func(_, x int64, _ map[string]int64) bool { return x >= 500 }},
		{ID: "xp-1000", Name: "XP Master", Description: "Earn 1,000 XP", Tier: shared.TierGold, Category: "xp", Value: 1000,
			Check: func(_, x int64, _ map[string]int64) bool { return x >= 1000 }},
		{ID: "flappy-10", Name: "Pipe Dodger", Description: "Score 10+ in Flappy Bird", Tier: shared.TierBronze, Category: "flappy", Value: 10,
			Check: atLeast("flappy", 10)},
		{ID: "flappy-50", Name: "Flappy Master", Description: "Score 50+ in Flappy Bird", Tier: shared.TierGold, Category: "flappy", Value: 50,
			Check: atLeast("flappy", 50)},
		{ID: "neon-1000", Name: "Neon Runner", Description: "Score 1,000+ in Neon Sky Runner", Tier: shared.TierBronze, Category: "neon", Value: 1000,
			Check: atLeast("neon-sky-runner", 1000)},
		{ID: "neon-10000", Name: "Sky Legend", Description: "Score 10,000+ in Neon Sky Runner", Tier: shared.TierGold, Category: "neon", Value: 10000,
			Check: atLeast("neon-sky-runner", 10000)},
		{ID: "tilenova-500", Name: "Circuit Breaker", Description: "Score 500+ in TileNova", Tier: shared.TierBronze, Category: "tilenova", Value: 500,
			Check: atLeast("tilenova", 500)},
		{ID: "tilenova-5000", Name: "Circuit Surge Master", Description: "Score 5,000+ in TileNova", Tier: shared.TierGold, Category: "tilenova", Value: 5000,
			Check: atLeast("tilenova", 5000)},
		{ID: "sudoku-500", Name: "Puzzle Solver", Description: "Score 500+ in Sudoku: Roast Mode", Tier: shared.TierBronze, Category: "sudoku", Value: 500,
			Check: atLeast("sudoku", 500)},
		{ID: "sudoku-1500", Name: "Roast Survivor", Description: "Score 1,500+ in Sudoku: Roast Mode", Tier: shared.TierGold, Category: "sudoku", Value: 1500,
			Check: atLeast("sudoku", 1500)},
		{ID: "all-rounder", Name: "All-Rounder", Description: "Play all 4 games", Tier: shared.TierSilver, Category: "multi", Value: 4,
			Check: func(_, _ int64, h map[string]int64) bool { return len(h) >= 4 }},
	}
}

// BadgeService detects newly-earned badges and mints them. The ledger row is
// written before the mint attempt: the database and the chain cannot share a
// transaction, so the durable unique insert comes first, the external call
// second, and the txHash attachment third. A crash or mint failure leaves
// the badge earned off-chain, never minted twice.
type BadgeService struct {
	appContext.DefaultService

	defs []BadgeDef

	sqlSvc   *SqlService
	chainSvc ChainBackend
	mediaSvc *MediaService
	monSvc   *MonitoringService
}

const BADGE_SVC = "badge_svc"

func (svc BadgeService) Id() string {
	return BADGE_SVC
}

func (svc *BadgeService) Configure(ctx *appContext.Context) error {
	svc.defs = DefaultBadgeDefs()
	return svc.DefaultService.Configure(ctx)
}

func (svc *BadgeService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.chainSvc = svc.Service(CHAIN_SVC).(*ChainService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

// SetDefs substitutes the badge definitions (tests).
func (svc *BadgeService) SetDefs(defs []BadgeDef) {
	svc.defs = defs
}

// SetChainBackend substitutes the chain collaborator (tests).
func (svc *BadgeService) SetChainBackend(backend ChainBackend) {
	svc.chainSvc = backend
}

// ReconcileBadges walks the definitions against the player's current stats
// and returns every badge newly earned by this call, minted or not. Errors
// are contained per badge: one bad definition or mint cannot hide the rest.
func (svc *BadgeService) ReconcileBadges(wallet string) []dto.BadgePayload {
	newBadges := []dto.BadgePayload{}

	var player model.Player
	if err := svc.sqlSvc.Db().Where("wallet_address = ?", wallet).First(&player).Error; err != nil {
		log.WithError(err).WithField("wallet", wallet).Warn("Badge reconcile: player lookup failed")
		return newBadges
	}

	var entries []model.LeaderboardEntry
	if err := svc.sqlSvc.Db().Where("wallet_address = ?", wallet).Find(&entries).Error; err != nil {
		log.WithError(err).Warn("Badge reconcile: leaderboard lookup failed")
		return newBadges
	}
	highScores := make(map[string]int64, len(entries))
	for _, e := range entries {
		highScores[e.GameID] = e.Score
	}

	var ledgered []model.Achievement
	if err := svc.sqlSvc.Db().
		Where("wallet_address = ? AND game_id = ?", wallet, shared.BadgeGameID).
		Find(&ledgered).Error; err != nil {
		log.WithError(err).Warn("Badge reconcile: ledger lookup failed")
		return newBadges
	}
	earned := make(map[string]bool, len(ledgered))
	for _, a := range ledgered {
		earned[a.Type] = true
	}

	for _, def := range svc.defs {
		if earned[def.ID] {
			continue
		}
		if !def.Check(player.SessionsPlayed, player.XP, highScores) {
			continue
		}

		payload, err := svc.grantAndMint(wallet, def)
		if err != nil {
			log.WithError(err).WithField("badge", def.ID).Warn("Badge grant failed")
			continue
		}
		if payload != nil {
			newBadges = append(newBadges, *payload)
		}
	}

	return newBadges
}

// grantAndMint is the three-step compensating sequence for one badge.
func (svc *BadgeService) grantAndMint(wallet string, def BadgeDef) (*dto.BadgePayload, error) {
	achievement := &model.Achievement{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		GameID:        shared.BadgeGameID,
		Type:          def.ID,
		RewardID:      def.ID,
		Score:         def.Value,
		CreatedAt:     time.Now(),
	}
	if err := svc.sqlSvc.Db().Create(achievement).Error; err != nil {
		if IsDuplicateKey(err) {
			// A concurrent reconcile won the insert; its caller surfaces
			// the badge.
			return nil, nil
		}
		return nil, err
	}

	log.WithFields(log.Fields{"badge": def.ID, "wallet": wallet}).Info("New badge earned")

	payload := &dto.BadgePayload{ID: def.ID, Name: def.Name, Tier: def.Tier}

	if !svc.chainSvc.Available() {
		return payload, nil
	}

	tokenURI, err := svc.mediaSvc.BadgeTokenURI(def.ID, TokenMetadata{
		Name:        def.Name,
		Description: def.Description,
		Attributes: []TokenAttribute{
			{TraitType: "Badge", Value: def.ID},
			{TraitType: "Tier", Value: def.Tier},
			{TraitType: "Requirement", Value: def.Value},
		},
	})
	if err != nil {
		log.WithError(err).WithField("badge", def.ID).Warn("Badge token URI build failed; badge stays off-chain")
		return payload, nil
	}

	svc.monSvc.MintAttempted()
	result, err := svc.chainSvc.MintAchievement(context.Background(), wallet,
		achievementTypeFor(def.Category), categoryToGameIndex[def.Category], def.Value, tokenURI)
	if err != nil || result == nil {
		svc.monSvc.MintFailed()
		log.WithError(err).WithField("badge", def.ID).Warn("Badge mint failed; ledger row kept, badge earned off-chain")
		return payload, nil
	}

	now := time.Now()
	err = svc.sqlSvc.Db().Model(&model.Achievement{}).
		Where("id = ?", achievement.ID).
		Updates(map[string]interface{}{"tx_hash": result.TxHash, "minted_at": now}).Error
	if err != nil {
		log.WithError(err).WithField("badge", def.ID).Warn("Failed to attach mint tx hash")
	}

	payload.TxHash = &result.TxHash
	return payload, nil
}

func achievementTypeFor(category string) int64 {
	if t, ok := categoryToAchievementType[category]; ok {
		return t
	}
	return AchievementMilestone
}

// BadgeStatuses lists every ledgered badge for the player with its mint
// state, so callers can tell "earned, on-chain" from "earned, off-chain".
func (svc *BadgeService) BadgeStatuses(wallet string) ([]dto.BadgeStatus, error) {
	var ledgered []model.Achievement
	err := svc.sqlSvc.Db().
		Where("wallet_address = ? AND game_id = ?", wallet, shared.BadgeGameID).
		Order("created_at").
		Find(&ledgered).Error
	if err != nil {
		return nil, err
	}

	defsByID := make(map[string]BadgeDef, len(svc.defs))
	for _, def := range svc.defs {
		defsByID[def.ID] = def
	}

	statuses := make([]dto.BadgeStatus, 0, len(ledgered))
	for _, a := range ledgered {
		status := dto.BadgeStatus{
			ID:       a.Type,
			EarnedAt: a.CreatedAt,
			Minted:   a.TxHash != nil,
			TxHash:   a.TxHash,
		}
		if def, ok := defsByID[a.Type]; ok {
			status.Name = def.Name
			status.Tier = def.Tier
		} else {
			status.Name = a.Type
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}
