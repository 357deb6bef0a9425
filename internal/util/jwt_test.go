package util

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := CreateToken(42, TokenAccess, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	claims, err := ValidateToken(token, testSecret, TokenAccess)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if id != 42 {
		t.Errorf("expected user 42, got %d", id)
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	token, err := CreateToken(1, TokenRefresh, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := ValidateToken(token, testSecret, TokenAccess); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := CreateToken(1, TokenAccess, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret", TokenAccess); err == nil {
		t.Error("token accepted with wrong secret")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	token, err := CreateToken(1, TokenAccess, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := ValidateToken(token, testSecret, TokenAccess); err == nil {
		t.Error("expired token accepted")
	}
}
