package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ginix-arcade/arcade_api/shared"
)

// JWTService verifies operator tokens for the admin surface. Player
// endpoints never use JWTs; players are identified by wallet address and
// guarded by the rate limiter instead.
type JWTService struct {
	context.DefaultService

	AccessTokenDuration time.Duration
	jwtSecretKey        string
}

type AdminClaims struct {
	Subject string `json:"sub_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

const JWT_SVC = "jwt_svc"

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	svc.AccessTokenDuration = 24 * time.Hour
	svc.jwtSecretKey = os.Getenv("JWT_ADMIN_SECRET")
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

// VerifyAdminToken returns the subject id when the token is valid, unexpired
// and carries the admin role.
func (svc *JWTService) VerifyAdminToken(jwtToken string) (string, error) {
	if svc.jwtSecretKey == "" {
		return "", errors.New("admin tokens not configured")
	}

	token, err := jwt.ParseWithClaims(jwtToken, &AdminClaims{}, svc.getJWTKey)
	if err != nil || !token.Valid {
		return "", errors.New("unsupported JWT format")
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims == nil {
		return "", errors.New("unsupported JWT format")
	}

	expTime, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("failed to get expiration time: %v", err)
	}
	if expTime.Unix() < time.Now().Unix() {
		return "", errors.New("token has expired")
	}

	if claims.Role != shared.AdminRole {
		return "", errors.New("insufficient role")
	}

	return claims.Subject, nil
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

// ToJWT mints an admin token, used by the seed tooling to bootstrap operator
// access in development.
func (svc *JWTService) ToJWT(subject string) (string, error) {
	expTime := time.Now().Add(svc.AccessTokenDuration)

	claims := &AdminClaims{
		Subject: subject,
		Role:    shared.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "arcade_api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
