package services

import (
	"context"
	"errors"
	"fmt"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/model"
	"github.com/ginix-arcade/arcade_api/shared"
)

// Base XP for any valid submission: flat participation bump plus the score.
const baseXPFloor = 10

// Display names used in score NFT metadata.
var gameDisplayNames = map[string]string{
	"neon-sky-runner": "Neon Sky Runner",
	"tilenova":        "TileNova",
	"flappy":          "Flappy Bird",
	"sudoku":          "Sudoku: Roast Mode",
}

// GameService runs the submission pipeline end to end. Everything that must
// hold under replays and crashes is committed in one DB transaction; the
// chain work after it (signature, badge mints, score NFT) is best-effort and
// only decorates the response.
type GameService struct {
	appContext.DefaultService

	sqlSvc       *SqlService
	sessionSvc   *SessionService
	antiCheatSvc *AntiCheatService
	rateLimitSvc *RateLimitService
	rewardSvc    *RewardService
	questSvc     *QuestService
	badgeSvc     *BadgeService
	signerSvc    *SignerService
	chainSvc     ChainBackend
	monSvc       *MonitoringService
}

const GAME_SVC = "game_svc"

func (svc GameService) Id() string {
	return GAME_SVC
}

func (svc *GameService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.sessionSvc = svc.Service(SESSION_SVC).(*SessionService)
	svc.antiCheatSvc = svc.Service(ANTI_CHEAT_SVC).(*AntiCheatService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.rewardSvc = svc.Service(REWARD_SVC).(*RewardService)
	svc.questSvc = svc.Service(QUEST_SVC).(*QuestService)
	svc.badgeSvc = svc.Service(BADGE_SVC).(*BadgeService)
	svc.signerSvc = svc.Service(SIGNER_SVC).(*SignerService)
	svc.chainSvc = svc.Service(CHAIN_SVC).(*ChainService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

// SetChainBackend substitutes the chain collaborator (tests).
func (svc *GameService) SetChainBackend(backend ChainBackend) {
	svc.chainSvc = backend
}

// StartSession admits the wallet under the session budget, then issues the
// session.
func (svc *GameService) StartSession(req dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	if err := svc.rateLimitSvc.Admit(req.Wallet, EndpointStartSession); err != nil {
		svc.monSvc.RateLimitRejected(EndpointStartSession)
		return nil, err
	}

	return svc.sessionSvc.StartSession(req.Wallet, req.GameID)
}

// SubmitScore validates and commits one reported result.
//
// Ordering is deliberate: rate limit, session checks and validation all run
// before the conditional close, the close decides ownership of the commit,
// the transaction makes the commit durable, and only then do signature and
// mint attempts run. A failure in any post-commit step degrades the response,
// never the stored result.
func (svc *GameService) SubmitScore(req dto.SubmitScoreRequest) (*dto.SubmitScoreResponse, error) {
	if err := svc.rateLimitSvc.Admit(req.Wallet+":submit", EndpointSubmitScore); err != nil {
		svc.monSvc.RateLimitRejected(EndpointSubmitScore)
		return nil, err
	}

	session, err := svc.sessionSvc.GetSession(req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Session not found")
		}
		return nil, svc.sqlSvc.HandleError(err)
	}

	if session.WalletAddress != req.Wallet || session.GameID != req.GameID {
		return nil, shared.NewForbiddenError(
			fmt.Errorf("session %s does not belong to %s/%s", session.ID, req.Wallet, req.GameID),
			"Session does not match wallet or game")
	}

	if session.EndedAt != nil {
		return svc.storedResult(session), nil
	}

	verdict := svc.antiCheatSvc.Validate(req.GameID, req.Score, req.Duration, session.StartedAt)
	if !verdict.Valid {
		svc.monSvc.SubmissionRejected(verdict.Reason)
		// Burn the session so the client cannot retry tuned values against
		// the same nonce. Losing the race here is fine; someone closed it.
		if _, err := svc.sessionSvc.CloseSession(svc.sqlSvc.Db(), session.ID, req.Score, req.Duration, false); err != nil {
			log.WithError(err).Warn("Failed to close rejected session")
		}
		return nil, shared.NewUnprocessableError(
			fmt.Errorf("validation failed: %s", verdict.Reason),
			"Score validation failed", verdict)
	}

	closed, err := svc.sessionSvc.CloseSession(svc.sqlSvc.Db(), session.ID, req.Score, req.Duration, true)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if !closed {
		// A concurrent duplicate won the close; serve its stored result.
		stored, err := svc.sessionSvc.GetSession(session.ID)
		if err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		return svc.storedResult(stored), nil
	}

	baseXP := baseXPFloor + req.Score
	xpEarned := baseXP

	var reward *Reward
	var completedQuests []CompletedQuest

	err = svc.sqlSvc.Db().Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Player{}).
			Where("wallet_address = ?", req.Wallet).
			UpdateColumns(map[string]interface{}{
				"xp":              gorm.Expr("xp + ?", baseXP),
				"sessions_played": gorm.Expr("sessions_played + 1"),
			}).Error
		if err != nil {
			return err
		}

		if err := upsertLeaderboard(tx, req.Wallet, req.GameID, req.Score, req.Duration); err != nil {
			return err
		}

		completedQuests, err = svc.questSvc.UpdateProgress(tx, req.Wallet, req.GameID, req.Score)
		if err != nil {
			return err
		}

		reward, err = svc.rewardSvc.Evaluate(tx, req.Wallet, req.GameID, req.Score)
		if err != nil {
			return err
		}
		if reward != nil {
			if err := svc.rewardSvc.Grant(tx, req.Wallet, req.GameID, req.Score, reward); err != nil {
				if IsDuplicateKey(err) {
					// Concurrent grant of the same reward; keep the rest of
					// the commit and drop the reward from this response.
					reward = nil
					return nil
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	svc.monSvc.SubmissionValidated()

	if reward != nil {
		xpEarned += reward.XP
	}
	for _, q := range completedQuests {
		xpEarned += q.XPReward
	}

	resp := &dto.SubmitScoreResponse{
		Success:  true,
		Valid:    true,
		Score:    req.Score,
		Duration: req.Duration,
		XPEarned: xpEarned,
	}

	if reward != nil {
		resp.Reward = svc.signReward(session.Nonce, req.Wallet, req.GameID, req.Score, reward)
	}

	resp.NewBadges = svc.badgeSvc.ReconcileBadges(req.Wallet)

	resp.ScoreNFT = svc.mintScoreNFT(req.Wallet, req.GameID, req.Score, req.Duration)

	return resp, nil
}

// storedResult rebuilds the idempotent response for a session that already
// ended. XP, rewards and badges were accounted for by the original commit, so
// the replay carries none.
func (svc *GameService) storedResult(session *model.Session) *dto.SubmitScoreResponse {
	return &dto.SubmitScoreResponse{
		Success:      true,
		AlreadyEnded: true,
		Valid:        session.Valid,
		Score:        session.Score,
		Duration:     session.Duration,
		XPEarned:     0,
		NewBadges:    []dto.BadgePayload{},
	}
}

// upsertLeaderboard keeps the best score per (game, wallet). The conditional
// assignment makes the stored score monotonic even when submissions for the
// same wallet interleave.
func upsertLeaderboard(tx *gorm.DB, wallet, gameID string, score, duration int64) error {
	entry := &model.LeaderboardEntry{
		ID:            gameID + ":" + wallet,
		GameID:        gameID,
		WalletAddress: wallet,
		Score:         score,
		Duration:      duration,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}, {Name: "wallet_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":    gorm.Expr("CASE WHEN ? > score THEN ? ELSE score END", score, score),
			"duration": gorm.Expr("CASE WHEN ? > score THEN ? ELSE duration END", score, duration),
		}),
	}).Create(entry).Error
}

// signReward attaches the claim signature when the custody key is
// configured. The grant is already durable; a missing or failing signer only
// nulls the signature field.
func (svc *GameService) signReward(nonce, wallet, gameID string, score int64, reward *Reward) *dto.RewardPayload {
	payload := &dto.RewardPayload{
		Type:     reward.Type,
		RewardID: reward.RewardID,
		XP:       reward.XP,
		Nonce:    nonce,
	}

	if !svc.signerSvc.Available() {
		return payload
	}

	sig, err := svc.signerSvc.Sign(nonce, wallet, gameID, score)
	if err != nil {
		log.WithError(err).Warn("Reward signing failed; grant stands unsigned")
		return payload
	}

	svc.monSvc.SignatureIssued()
	payload.Signature = &sig
	return payload
}

// mintScoreNFT mints the per-submission score token with inline metadata.
// Score NFTs are commemorative; nothing downstream depends on them, so
// failures are logged and swallowed. Zero scores are valid but mint nothing.
func (svc *GameService) mintScoreNFT(wallet, gameID string, score, duration int64) *dto.ScoreNFTPayload {
	if score <= 0 || !svc.chainSvc.Available() {
		return nil
	}

	gameName := gameDisplayNames[gameID]
	if gameName == "" {
		gameName = gameID
	}

	tokenURI, err := BuildDataURI(TokenMetadata{
		Name:        fmt.Sprintf("%s Score: %d", gameName, score),
		Description: fmt.Sprintf("Verified score of %d in %s", score, gameName),
		Attributes: []TokenAttribute{
			{TraitType: "Game", Value: gameName},
			{TraitType: "Score", Value: score},
			{TraitType: "Duration", Value: duration},
			{TraitType: "Chain", Value: svc.signerSvc.ChainID()},
		},
	})
	if err != nil {
		log.WithError(err).Warn("Score NFT metadata build failed")
		return nil
	}

	svc.monSvc.MintAttempted()
	result, err := svc.chainSvc.MintAchievement(context.Background(), wallet,
		AchievementHighscore, GameIndexes[gameID], score, tokenURI)
	if err != nil || result == nil {
		svc.monSvc.MintFailed()
		log.WithError(err).WithField("wallet", wallet).Warn("Score NFT mint failed")
		return nil
	}

	return &dto.ScoreNFTPayload{TxHash: result.TxHash, TokenID: result.TokenID}
}

// PlayerStats aggregates the player's lifetime view: totals, per-game bests
// and the badge ledger with mint state.
func (svc *GameService) PlayerStats(wallet string) (*dto.PlayerStatsResponse, error) {
	var player model.Player
	if err := svc.sqlSvc.Db().Where("wallet_address = ?", wallet).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Player not found")
		}
		return nil, svc.sqlSvc.HandleError(err)
	}

	var entries []model.LeaderboardEntry
	if err := svc.sqlSvc.Db().Where("wallet_address = ?", wallet).Find(&entries).Error; err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	highScores := make(map[string]int64, len(entries))
	for _, e := range entries {
		highScores[e.GameID] = e.Score
	}

	badges, err := svc.badgeSvc.BadgeStatuses(wallet)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	return &dto.PlayerStatsResponse{
		WalletAddress:  player.WalletAddress,
		XP:             player.XP,
		SessionsPlayed: player.SessionsPlayed,
		HighScores:     highScores,
		Badges:         badges,
	}, nil
}
