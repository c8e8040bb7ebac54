package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testUser = "123456789012345678"

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret-key")

	token, err := ts.GenerateAccessToken(testUser, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	claims, err := ts.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error: %v", err)
	}
	if claims.UserID != testUser {
		t.Errorf("UserID = %q, want %q", claims.UserID, testUser)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Errorf("default lifetime = %s", got)
	}
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	ts := NewTokenService("test-secret-key")
	sign := func(t *testing.T, userID string, ttl time.Duration) string {
		t.Helper()
		token, err := ts.GenerateAccessToken(userID, ttl)
		if err != nil {
			t.Fatalf("GenerateAccessToken() error: %v", err)
		}
		return token
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"expired", func(t *testing.T) string { return sign(t, testUser, -time.Second) }},
		{"missing user id", func(t *testing.T) string { return sign(t, "", 0) }},
		{"other secret", func(t *testing.T) string {
			token, _ := NewTokenService("another-secret").GenerateAccessToken(testUser, 0)
			return token
		}},
		{"tampered signature", func(t *testing.T) string {
			token := sign(t, testUser, 0)
			// Flip a character mid-signature; the last one only carries padding bits.
			start := strings.LastIndex(token, ".") + 1
			mid := start + (len(token)-start)/2
			b := byte('A')
			if token[mid] == 'A' {
				b = 'B'
			}
			return token[:mid] + string(b) + token[mid+1:]
		}},
		{"none signing method", func(t *testing.T) string {
			claims := Claims{
				UserID:           testUser,
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			if err != nil {
				t.Fatalf("signing with none: %v", err)
			}
			return token
		}},
		{"garbage", func(*testing.T) string { return "not.a.jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.ValidateAccessToken(tt.token(t)); err == nil {
				t.Error("expected the token to be rejected")
			}
		})
	}
}
