package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/ginix-arcade/arcade_api/model"
)

// GameRules bounds plausible score, duration and scoring rate for one game.
// Pacing and score magnitude vary by genre, so the table is per-game.
type GameRules struct {
	MaxScore          int64
	MinDuration       int64
	MaxScorePerSecond float64
}

// DriftTolerance is the allowed discrepancy in seconds between the
// client-reported duration and the server-observed elapsed time. It binds
// the reported duration to this session's wall clock (defeating fabricated
// durations) while absorbing tab throttling and scheduling jitter.
const DriftTolerance = 12.0

// Rejection reason codes, machine-readable for the 422 payload.
const (
	ReasonUnknownGame      = "unknown_game"
	ReasonMaxScore         = "max_score_exceeded"
	ReasonDurationTooShort = "duration_too_short"
	ReasonDurationMismatch = "duration_mismatch"
	ReasonScoreRate        = "score_rate_too_high"
	ReasonInvalidScore     = "invalid_score"
)

func DefaultGameRules() map[string]GameRules {
	return map[string]GameRules{
		"neon-sky-runner": {MaxScore: 1000000, MinDuration: 5, MaxScorePerSecond: 500},
		"tilenova":        {MaxScore: 100000, MinDuration: 30, MaxScorePerSecond: 100},
		"flappy":          {MaxScore: 500, MinDuration: 5, MaxScorePerSecond: 10},
		"sudoku":          {MaxScore: 3000, MinDuration: 30, MaxScorePerSecond: 50},
	}
}

type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type AntiCheatService struct {
	context.DefaultService

	rules map[string]GameRules

	sqlSvc *SqlService
}

const ANTI_CHEAT_SVC = "anti_cheat_svc"

func (svc AntiCheatService) Id() string {
	return ANTI_CHEAT_SVC
}

func (svc *AntiCheatService) Configure(ctx *context.Context) error {
	svc.rules = DefaultGameRules()
	return svc.DefaultService.Configure(ctx)
}

// Start overlays any operator-tuned rule rows from the game_configs table on
// top of the built-in defaults.
func (svc *AntiCheatService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)

	var configs []model.GameConfig
	if err := svc.sqlSvc.Db().Where("active = ?", true).Find(&configs).Error; err != nil {
		log.Printf("Failed to load game configs, using built-in rules: %v", err)
		return nil
	}

	for _, cfg := range configs {
		svc.rules[cfg.GameID] = GameRules{
			MaxScore:          cfg.MaxScore,
			MinDuration:       cfg.MinDuration,
			MaxScorePerSecond: cfg.MaxScorePerSecond,
		}
	}

	return nil
}

// Rules exposes the loaded rule table (read only).
func (svc *AntiCheatService) Rules() map[string]GameRules {
	return svc.rules
}

// SetRules substitutes the rule table. Tests use this to exercise the
// validator against synthetic games.
func (svc *AntiCheatService) SetRules(rules map[string]GameRules) {
	svc.rules = rules
}

// Validate is a pure check of a reported result against the per-game rule
// table and the server-observed session clock. Checks run in order and
// short-circuit on the first failure.
func (svc *AntiCheatService) Validate(gameID string, score, duration int64, sessionStartedAt time.Time) ValidationResult {
	return ValidateScore(svc.rules, gameID, score, duration, sessionStartedAt, time.Now())
}

// ValidateScore is the pure core of the validator; now is injected so the
// drift check is testable.
func ValidateScore(rules map[string]GameRules, gameID string, score, duration int64, sessionStartedAt, now time.Time) ValidationResult {
	r, ok := rules[gameID]
	if !ok {
		return ValidationResult{Valid: false, Reason: ReasonUnknownGame, Detail: "Unknown game"}
	}

	if score > r.MaxScore {
		return ValidationResult{
			Valid:  false,
			Reason: ReasonMaxScore,
			Detail: fmt.Sprintf("Score exceeds maximum (%d)", r.MaxScore),
		}
	}

	if duration < r.MinDuration {
		return ValidationResult{
			Valid:  false,
			Reason: ReasonDurationTooShort,
			Detail: fmt.Sprintf("Duration too short (min: %ds)", r.MinDuration),
		}
	}

	serverElapsed := now.Sub(sessionStartedAt).Seconds()
	drift := serverElapsed - float64(duration)
	if drift < 0 {
		drift = -drift
	}
	if drift > DriftTolerance {
		return ValidationResult{
			Valid:  false,
			Reason: ReasonDurationMismatch,
			Detail: "Duration mismatch with session time",
		}
	}

	scorePerSecond := float64(score) / float64(duration)
	if scorePerSecond > r.MaxScorePerSecond {
		return ValidationResult{
			Valid:  false,
			Reason: ReasonScoreRate,
			Detail: fmt.Sprintf("Score rate too high (%.1f/s, max: %.0f/s)", scorePerSecond, r.MaxScorePerSecond),
		}
	}

	if score < 0 {
		return ValidationResult{Valid: false, Reason: ReasonInvalidScore, Detail: "Invalid score value"}
	}

	return ValidationResult{Valid: true}
}
