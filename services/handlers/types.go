package handlers

import (
	"github.com/ginix-arcade/arcade_api/dto"
)

type GameServiceInterface interface {
	StartSession(req dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	SubmitScore(req dto.SubmitScoreRequest) (*dto.SubmitScoreResponse, error)
	PlayerStats(wallet string) (*dto.PlayerStatsResponse, error)
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyAdminToken(token string) (string, error)
}

type RateLimitAdminInterface interface {
	ConfigSnapshot() []dto.RateLimitConfigResponse
	UpdateConfigFromRequest(endpointType string, req dto.UpdateRateLimitConfigRequest) (*dto.RateLimitConfigResponse, error)
}
