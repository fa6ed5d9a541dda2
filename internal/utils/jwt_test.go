package utils

import (
	"strings"
	"testing"
	"time"
)

func init() {
	SetJWTSecret("test-secret-key-for-token-tests")
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "crafter", "moderator", 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token is not a compact JWT: %q", token)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "crafter" {
		t.Errorf("Username = %q, want crafter", claims.Username)
	}
	if claims.Role != "moderator" {
		t.Errorf("Role = %q, want moderator", claims.Role)
	}
}

func TestTokenExpiry(t *testing.T) {
	token, err := GenerateToken(1, "crafter", "user", 2)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < time.Hour || remaining > 2*time.Hour {
		t.Errorf("expiry %v from now, want about 2h", remaining)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, _ := GenerateToken(1, "crafter", "user", 24)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "definitely-not-a-jwt"},
		{"tampered payload", valid[:len(valid)-4] + "XXXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token); err == nil {
				t.Error("ParseToken accepted an invalid token")
			}
		})
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken(1, "crafter", "user", 24)

	SetJWTSecret("a-completely-different-secret")
	defer SetJWTSecret("test-secret-key-for-token-tests")

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken accepted a token signed with another secret")
	}
}
