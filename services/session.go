package services

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/model"
)

// SessionService issues sessions and owns the single-mutation close. There
// is no separate end-session call: a session ends as part of the submission
// commit via CloseSession.
type SessionService struct {
	context.DefaultService

	sqlSvc *SqlService
}

const SESSION_SVC = "session_svc"

func (svc SessionService) Id() string {
	return SESSION_SVC
}

func (svc *SessionService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	return nil
}

// StartSession upserts the player row and creates a session with a fresh
// 32-byte random nonce. The nonce later binds the signed attestation to this
// specific session, so an old signature cannot be replayed against a new one.
func (svc *SessionService) StartSession(wallet, gameID string) (*dto.StartSessionResponse, error) {
	now := time.Now()

	player := &model.Player{
		WalletAddress:  wallet,
		XP:             0,
		SessionsPlayed: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := svc.sqlSvc.Db().
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "wallet_address"}}, DoNothing: true}).
		Create(player).Error
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		GameID:        gameID,
		Nonce:         nonce,
		StartedAt:     now,
		Valid:         true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := svc.sqlSvc.Db().Create(session).Error; err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	return &dto.StartSessionResponse{
		SessionID: session.ID,
		Nonce:     session.Nonce,
		StartedAt: session.StartedAt,
	}, nil
}

func (svc *SessionService) GetSession(sessionID string) (*model.Session, error) {
	var session model.Session
	if err := svc.sqlSvc.Db().Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession performs the "read endedAt, write score+endedAt" step as one
// conditional update: only the caller whose UPDATE matches the ended_at IS
// NULL predicate owns the commit. Everyone else gets closed=false and must
// serve the stored result instead.
func (svc *SessionService) CloseSession(db *gorm.DB, sessionID string, score, duration int64, valid bool) (bool, error) {
	now := time.Now()
	res := db.Model(&model.Session{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"ended_at":   now,
			"score":      score,
			"duration":   duration,
			"valid":      valid,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GenerateNonce returns 32 random bytes hex encoded.
func GenerateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
