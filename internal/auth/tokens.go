package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates a token whose signature or structure failed
	// verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenConfig holds the signing material and lifetimes for both token classes.
// Access and refresh tokens are signed with distinct secrets so that one class
// can never be replayed as the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Tokens mints and verifies the signed, stateless claim sets. Verification is
// pure computation; refresh-token statefulness lives in Manager.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokens constructs a token issuer/verifier from the provided configuration.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("access and refresh secrets are required")
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &Tokens{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (t *Tokens) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// MintAccess signs a short-lived access token for the identity.
func (t *Tokens) MintAccess(identityID string) (string, time.Time, error) {
	return t.mint(identityID, t.accessSecret, t.accessTTL)
}

// MintRefresh signs a long-lived refresh token for the identity.
func (t *Tokens) MintRefresh(identityID string) (string, time.Time, error) {
	return t.mint(identityID, t.refreshSecret, t.refreshTTL)
}

func (t *Tokens) mint(identityID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if identityID == "" {
		return "", time.Time{}, fmt.Errorf("identity id is required")
	}
	issuedAt := t.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   identityID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess checks signature and expiry of an access token and returns the
// subject identity ID. It never consults stored session state.
func (t *Tokens) VerifyAccess(token string) (string, error) {
	return t.verify(token, t.accessSecret)
}

// VerifyRefreshSignature checks signature and expiry of a refresh token and
// returns the subject identity ID. Callers that need replay protection must go
// through Manager.VerifyRefresh, which also compares the stored slot value.
func (t *Tokens) VerifyRefreshSignature(token string) (string, error) {
	return t.verify(token, t.refreshSecret)
}

func (t *Tokens) verify(token string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
