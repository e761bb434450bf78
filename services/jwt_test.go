package services

import (
	"testing"
	"time"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	svc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}

	token, err := svc.ToJWT("ops-1")
	if err != nil {
		t.Fatal(err)
	}

	subject, err := svc.VerifyAdminToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "ops-1" {
		t.Fatalf("expected subject ops-1, got %s", subject)
	}
}

func TestAdminTokenWrongSecret(t *testing.T) {
	issuer := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "secret-a"}
	verifier := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "secret-b"}

	token, err := issuer.ToJWT("ops-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := verifier.VerifyAdminToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestAdminTokenExpired(t *testing.T) {
	svc := &JWTService{AccessTokenDuration: -time.Minute, jwtSecretKey: "test-secret"}

	token, err := svc.ToJWT("ops-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.VerifyAdminToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := &JWTService{}

	if _, err := svc.ExtractTokenFromHeader(""); err == nil {
		t.Fatal("missing header must be rejected")
	}
	if _, err := svc.ExtractTokenFromHeader("Token abc"); err == nil {
		t.Fatal("non-bearer header must be rejected")
	}

	token, err := svc.ExtractTokenFromHeader("Bearer abc.def.ghi")
	if err != nil {
		t.Fatal(err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", token)
	}
}
