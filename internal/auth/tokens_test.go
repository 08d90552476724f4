package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestNewTokensRequiresSecrets(t *testing.T) {
	if _, err := NewTokens(TokenConfig{RefreshSecret: []byte("x")}); err == nil {
		t.Fatal("expected error without access secret")
	}
	if _, err := NewTokens(TokenConfig{AccessSecret: []byte("x")}); err == nil {
		t.Fatal("expected error without refresh secret")
	}
}

func TestMintAndVerifyAccess(t *testing.T) {
	tokens := newTestTokens(t)
	token, expiresAt, err := tokens.MintAccess("identity-1")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expected access expiry in the future")
	}
	subject, err := tokens.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if subject != "identity-1" {
		t.Fatalf("expected subject identity-1, got %q", subject)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	tokens := newTestTokens(t)
	refresh, _, err := tokens.MintRefresh("identity-1")
	if err != nil {
		t.Fatalf("MintRefresh: %v", err)
	}
	if _, err := tokens.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for cross-class token, got %v", err)
	}
}

func TestVerifyAccessRejectsTampering(t *testing.T) {
	tokens := newTestTokens(t)
	token, _, err := tokens.MintAccess("identity-1")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"truncated", token[:len(token)-10]},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tokens.VerifyAccess(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifyAccessExpiry(t *testing.T) {
	tokens := newTestTokens(t)
	issued := time.Now()
	tokens.now = func() time.Time { return issued }
	token, _, err := tokens.MintAccess("identity-1")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}

	tokens.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := tokens.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAccessAndRefreshTokensDiffer(t *testing.T) {
	tokens := newTestTokens(t)
	access, _, err := tokens.MintAccess("identity-1")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	refresh, _, err := tokens.MintRefresh("identity-1")
	if err != nil {
		t.Fatalf("MintRefresh: %v", err)
	}
	if access == refresh {
		t.Fatal("expected distinct access and refresh tokens")
	}
	subject, err := tokens.VerifyRefreshSignature(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshSignature: %v", err)
	}
	if subject != "identity-1" {
		t.Fatalf("expected subject identity-1, got %q", subject)
	}
}
