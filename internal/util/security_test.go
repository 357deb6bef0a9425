package util

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == "Sup3rSecret" {
		t.Fatal("password stored in plaintext")
	}
	if !VerifyPassword("Sup3rSecret", hashed) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong", hashed) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	b, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(a) != 64 || len(b) != 64 {
		t.Errorf("expected 64 hex chars, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Error("two generated tokens collided")
	}
}

func TestGenerateInvitationCode(t *testing.T) {
	code, err := GenerateInvitationCode(8)
	if err != nil {
		t.Fatalf("GenerateInvitationCode failed: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected 8 chars, got %q", code)
	}
	for _, c := range code {
		if !strings.ContainsRune(invitationAlphabet, c) {
			t.Errorf("character %q outside the allowed alphabet", c)
		}
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Sup3rSecret", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
	}
	for _, tc := range cases {
		err := ValidatePasswordStrength(tc.password)
		if tc.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q: expected rejection", tc.password)
		}
	}
}
