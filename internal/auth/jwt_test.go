package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	signed, expiresAt, err := GenerateToken("op-1", "Alice", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected future expiry")
	}

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token failed: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims[claimOperatorID] != "op-1" || claims[claimOperatorName] != "Alice" {
		t.Errorf("unexpected claims %v", claims)
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	if _, _, err := GenerateToken("", "x", "secret", time.Hour); err == nil {
		t.Error("expected error for missing operator id")
	}
	if _, _, err := GenerateToken("op-1", "x", "", time.Hour); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, _, err := GenerateToken("op-1", "x", "secret", 0); err == nil {
		t.Error("expected error for non-positive expiry")
	}
}
