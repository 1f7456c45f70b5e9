package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "s3cret")

	token, err := SignJWT(Claims{Sub: "user-1", Email: "fiscalist@kantoor.nl"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "user-1" || claims.Email != "fiscalist@kantoor.nl" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Exp-claims.Iat != int64(defaultTokenTTL/time.Second) {
		t.Fatalf("expected default ttl, got %d", claims.Exp-claims.Iat)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	token, err := SignJWT(Claims{Sub: "user-1"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	parts := strings.Split(token, ".")
	t.Setenv("JWT_SECRET", "other")
	if _, err := VerifyJWT(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	past := time.Now().Add(-2 * time.Hour).Unix()
	token, err := SignJWT(Claims{Sub: "user-1", Iat: past, Exp: past + 60})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	_, err = VerifyJWT(token)
	if !errors.Is(err, ErrExpiredToken) || !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := SignJWT(Claims{Sub: "x"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
