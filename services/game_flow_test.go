package services

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/model"
	"github.com/ginix-arcade/arcade_api/shared"
)

const testWallet = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

// stubChain stands in for the EVM backend.
type stubChain struct {
	mu        sync.Mutex
	available bool
	failMint  bool
	mints     int
}

func (s *stubChain) Available() bool { return s.available }

func (s *stubChain) MintAchievement(_ context.Context, to string, _, _, _ int64, _ string) (*MintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mints++
	if s.failMint {
		return nil, errors.New("rpc unreachable")
	}
	return &MintResult{TxHash: "0xstub", TokenID: int64(s.mints)}, nil
}

func (s *stubChain) mintCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mints
}

type testEnv struct {
	db      *gorm.DB
	chain   *stubChain
	gameSvc *GameService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}

	// sqlite allows a single writer; one pooled connection keeps concurrent
	// callers queued on the pool instead of failing with SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Create(&model.Quest{
		ID:               "first-game",
		Name:             "First Steps",
		XPReward:         50,
		RequirementType:  shared.QuestTypePlayGames,
		RequirementValue: 1,
		Active:           true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}).Error; err != nil {
		t.Fatal(err)
	}

	sqlSvc := &SqlService{db: db}
	monSvc := &MonitoringService{}
	chain := &stubChain{available: true}

	rateLimitSvc := &RateLimitService{}
	rateLimitSvc.configs = map[string]*RateLimitConfig{
		EndpointStartSession: {EndpointType: EndpointStartSession, MaxRequests: 1000, WindowSize: time.Minute, IsActive: true},
		EndpointSubmitScore:  {EndpointType: EndpointSubmitScore, MaxRequests: 1000, WindowSize: time.Minute, IsActive: true},
	}
	rateLimitSvc.store = NewMemoryCounterStore()

	badgeSvc := &BadgeService{
		defs:     []BadgeDef{},
		sqlSvc:   sqlSvc,
		chainSvc: chain,
		mediaSvc: &MediaService{},
		monSvc:   monSvc,
	}

	gameSvc := &GameService{
		sqlSvc:       sqlSvc,
		sessionSvc:   &SessionService{sqlSvc: sqlSvc},
		antiCheatSvc: &AntiCheatService{rules: DefaultGameRules()},
		rateLimitSvc: rateLimitSvc,
		rewardSvc:    &RewardService{rules: DefaultRewardRules(), sqlSvc: sqlSvc},
		questSvc:     &QuestService{sqlSvc: sqlSvc},
		badgeSvc:     badgeSvc,
		signerSvc:    newTestSigner(t),
		chainSvc:     chain,
		monSvc:       monSvc,
	}

	return &testEnv{db: db, chain: chain, gameSvc: gameSvc}
}

func (e *testEnv) startSession(t *testing.T, gameID string) *dto.StartSessionResponse {
	t.Helper()
	resp, err := e.gameSvc.StartSession(dto.StartSessionRequest{Wallet: testWallet, GameID: gameID})
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) submit(sessionID, gameID string, score, duration int64) (*dto.SubmitScoreResponse, error) {
	return e.gameSvc.SubmitScore(dto.SubmitScoreRequest{
		SessionID: sessionID,
		Wallet:    testWallet,
		GameID:    gameID,
		Score:     score,
		Duration:  duration,
	})
}

func (e *testEnv) playerXP(t *testing.T) int64 {
	t.Helper()
	var player model.Player
	if err := e.db.Where("wallet_address = ?", testWallet).First(&player).Error; err != nil {
		t.Fatal(err)
	}
	return player.XP
}

func TestSubmitScoreFullPipeline(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "neon-sky-runner")

	if session.Nonce == "" || len(session.Nonce) != 64 {
		t.Fatalf("expected 32-byte hex nonce, got %q", session.Nonce)
	}

	resp, err := env.submit(session.SessionID, "neon-sky-runner", 2500, 10)
	if err != nil {
		t.Fatal(err)
	}

	if !resp.Success || !resp.Valid || resp.AlreadyEnded {
		t.Fatalf("unexpected response flags: %+v", resp)
	}

	// Base 10+2500, NEON_BADGE 100, first-game quest 50.
	if resp.XPEarned != 2660 {
		t.Fatalf("expected 2660 XP, got %d", resp.XPEarned)
	}
	if got := env.playerXP(t); got != 2660 {
		t.Fatalf("stored XP = %d, want 2660", got)
	}

	if resp.Reward == nil || resp.Reward.Type != "NEON_BADGE" {
		t.Fatalf("expected NEON_BADGE reward, got %+v", resp.Reward)
	}
	if resp.Reward.Signature == nil {
		t.Fatal("expected signature with configured signer")
	}
	if resp.Reward.Nonce != session.Nonce {
		t.Fatal("reward nonce must match the session nonce")
	}

	if resp.ScoreNFT == nil || resp.ScoreNFT.TxHash != "0xstub" {
		t.Fatalf("expected score NFT from stub chain, got %+v", resp.ScoreNFT)
	}

	var sess model.Session
	if err := env.db.First(&sess, "id = ?", session.SessionID).Error; err != nil {
		t.Fatal(err)
	}
	if sess.EndedAt == nil || !sess.Valid || sess.Score != 2500 {
		t.Fatalf("session not committed: %+v", sess)
	}
}

func TestSubmitScoreDuplicateIdempotent(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "neon-sky-runner")

	if _, err := env.submit(session.SessionID, "neon-sky-runner", 2500, 10); err != nil {
		t.Fatal(err)
	}
	xpAfterFirst := env.playerXP(t)

	resp, err := env.submit(session.SessionID, "neon-sky-runner", 2500, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.AlreadyEnded || resp.XPEarned != 0 {
		t.Fatalf("replay must be a no-op, got %+v", resp)
	}
	if resp.Score != 2500 || !resp.Valid {
		t.Fatalf("replay must serve the stored result, got %+v", resp)
	}

	if got := env.playerXP(t); got != xpAfterFirst {
		t.Fatalf("replay changed XP: %d -> %d", xpAfterFirst, got)
	}

	var count int64
	env.db.Model(&model.Achievement{}).Where("wallet_address = ?", testWallet).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 achievement row, got %d", count)
	}
}

func TestSubmitScoreConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "neon-sky-runner")

	const workers = 8
	results := make([]*dto.SubmitScoreResponse, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.submit(session.SessionID, "neon-sky-runner", 2500, 10)
		}(i)
	}
	wg.Wait()

	committed := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if !results[i].AlreadyEnded {
			committed++
		}
	}
	if committed != 1 {
		t.Fatalf("exactly one caller must own the close, got %d", committed)
	}

	// Base 10+2500, NEON_BADGE 100, first-game quest 50, committed once.
	if got := env.playerXP(t); got != 2660 {
		t.Fatalf("concurrent duplicates changed XP: got %d, want 2660", got)
	}

	var count int64
	env.db.Model(&model.Achievement{}).Where("wallet_address = ?", testWallet).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 achievement row, got %d", count)
	}
}

func TestSubmitScoreZeroScoreNoNFT(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "flappy")

	resp, err := env.submit(session.SessionID, "flappy", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Valid {
		t.Fatalf("zero score is a valid result, got %+v", resp)
	}
	if resp.ScoreNFT != nil {
		t.Fatalf("zero score must not mint a token, got %+v", resp.ScoreNFT)
	}
	if env.chain.mintCount() != 0 {
		t.Fatalf("expected no mint attempts, got %d", env.chain.mintCount())
	}
}

func TestSubmitScoreRejectedBurnsSession(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "flappy")

	_, err := env.submit(session.SessionID, "flappy", 501, 60)
	if err == nil {
		t.Fatal("expected validation rejection")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 AppError, got %v", err)
	}
	verdict, ok := appErr.Data.(ValidationResult)
	if !ok || verdict.Reason != ReasonMaxScore {
		t.Fatalf("expected %s reason payload, got %+v", ReasonMaxScore, appErr.Data)
	}

	// The session is burned; a corrected retry serves the stored invalid
	// result instead of re-validating.
	resp, err := env.submit(session.SessionID, "flappy", 50, 60)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.AlreadyEnded || resp.Valid {
		t.Fatalf("burned session must stay invalid, got %+v", resp)
	}

	if got := env.playerXP(t); got != 0 {
		t.Fatalf("rejected submission granted XP: %d", got)
	}
}

func TestLeaderboardMonotonic(t *testing.T) {
	env := newTestEnv(t)

	scores := []int64{2500, 2000, 3000}
	wants := []int64{2500, 2500, 3000}

	for i, score := range scores {
		session := env.startSession(t, "neon-sky-runner")
		if _, err := env.submit(session.SessionID, "neon-sky-runner", score, 10); err != nil {
			t.Fatal(err)
		}

		var entry model.LeaderboardEntry
		err := env.db.Where("game_id = ? AND wallet_address = ?", "neon-sky-runner", testWallet).First(&entry).Error
		if err != nil {
			t.Fatal(err)
		}
		if entry.Score != wants[i] {
			t.Fatalf("after score %d: leaderboard = %d, want %d", score, entry.Score, wants[i])
		}
	}

	var count int64
	env.db.Model(&model.LeaderboardEntry{}).Where("wallet_address = ?", testWallet).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single leaderboard row per (game, wallet), got %d", count)
	}
}

func TestRewardGrantedOnce(t *testing.T) {
	env := newTestEnv(t)

	s1 := env.startSession(t, "neon-sky-runner")
	resp, err := env.submit(s1.SessionID, "neon-sky-runner", 2500, 10)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reward == nil || resp.Reward.Type != "NEON_BADGE" {
		t.Fatalf("expected NEON_BADGE on first qualifying score, got %+v", resp.Reward)
	}

	// Same threshold again: already granted, no reward.
	s2 := env.startSession(t, "neon-sky-runner")
	resp, err = env.submit(s2.SessionID, "neon-sky-runner", 2600, 10)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reward != nil {
		t.Fatalf("NEON_BADGE must not be granted twice, got %+v", resp.Reward)
	}

	// The next tier still unlocks. 6000 over 12s is exactly at neon's
	// 500/s rate cap and the duration stays inside drift tolerance.
	s3 := env.startSession(t, "neon-sky-runner")
	resp, err = env.submit(s3.SessionID, "neon-sky-runner", 6000, 12)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reward == nil || resp.Reward.Type != "SKY_MASTER" {
		t.Fatalf("expected SKY_MASTER at 6000, got %+v", resp.Reward)
	}
}

func TestQuestCompletesExactlyOnce(t *testing.T) {
	env := newTestEnv(t)

	s1 := env.startSession(t, "flappy")
	if _, err := env.submit(s1.SessionID, "flappy", 5, 10); err != nil {
		t.Fatal(err)
	}
	// Base 15 + quest 50.
	if got := env.playerXP(t); got != 65 {
		t.Fatalf("expected 65 XP after first session, got %d", got)
	}

	s2 := env.startSession(t, "flappy")
	if _, err := env.submit(s2.SessionID, "flappy", 5, 10); err != nil {
		t.Fatal(err)
	}
	// Second session: base only, quest already completed.
	if got := env.playerXP(t); got != 80 {
		t.Fatalf("expected 80 XP after second session, got %d", got)
	}

	var pq model.PlayerQuest
	if err := env.db.Where("wallet_address = ? AND quest_id = ?", testWallet, "first-game").First(&pq).Error; err != nil {
		t.Fatal(err)
	}
	if !pq.Completed || pq.CompletedAt == nil {
		t.Fatalf("quest should be completed: %+v", pq)
	}
}

func TestSubmitScoreSessionChecks(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submit("no-such-session", "flappy", 5, 10)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %v", err)
	}

	session := env.startSession(t, "flappy")
	_, err = env.gameSvc.SubmitScore(dto.SubmitScoreRequest{
		SessionID: session.SessionID,
		Wallet:    "0x0000000000000000000000000000000000000001",
		GameID:    "flappy",
		Score:     5,
		Duration:  10,
	})
	appErr, ok = shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for wallet mismatch, got %v", err)
	}

	_, err = env.submit(session.SessionID, "neon-sky-runner", 5, 10)
	appErr, ok = shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for game mismatch, got %v", err)
	}
}

func TestPlayerStats(t *testing.T) {
	env := newTestEnv(t)

	session := env.startSession(t, "flappy")
	if _, err := env.submit(session.SessionID, "flappy", 42, 10); err != nil {
		t.Fatal(err)
	}

	stats, err := env.gameSvc.PlayerStats(testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SessionsPlayed != 1 || stats.HighScores["flappy"] != 42 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	_, err = env.gameSvc.PlayerStats("0x0000000000000000000000000000000000000002")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown player, got %v", err)
	}
}
