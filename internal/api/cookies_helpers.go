package api

import (
	"net/http"
	"strings"
	"time"

	"clipstream/internal/auth"
)

const (
	// AccessCookieName carries the short-lived access token.
	AccessCookieName = "clipstream_access"
	// RefreshCookieName carries the long-lived refresh token.
	RefreshCookieName = "clipstream_refresh"
)

// TokenCookieSecureMode controls when the Secure attribute is set.
type TokenCookieSecureMode int

const (
	// TokenCookieSecureAuto marks cookies Secure only on HTTPS requests.
	TokenCookieSecureAuto TokenCookieSecureMode = iota
	// TokenCookieSecureAlways marks cookies Secure unconditionally.
	TokenCookieSecureAlways
)

// TokenCookiePolicy is environment configuration for the token cookies.
type TokenCookiePolicy struct {
	SameSite   http.SameSite
	SecureMode TokenCookieSecureMode
}

// DefaultTokenCookiePolicy matches a same-origin browser deployment.
func DefaultTokenCookiePolicy() TokenCookiePolicy {
	return TokenCookiePolicy{
		SameSite:   http.SameSiteStrictMode,
		SecureMode: TokenCookieSecureAuto,
	}
}

func (p TokenCookiePolicy) secure(r *http.Request) bool {
	if p.SecureMode == TokenCookieSecureAlways {
		return true
	}
	return isSecureRequest(r)
}

func (h *Handler) tokenCookiePolicy() TokenCookiePolicy {
	policy := h.CookiePolicy
	if policy.SameSite == 0 {
		policy.SameSite = http.SameSiteStrictMode
	}
	return policy
}

// setTokenCookies attaches the freshly issued pair as http-only cookies. The
// same tokens also travel in the response body; clients pick one transport.
func (h *Handler) setTokenCookies(w http.ResponseWriter, r *http.Request, pair auth.Pair) {
	policy := h.tokenCookiePolicy()
	setTokenCookie(w, r, AccessCookieName, pair.AccessToken, pair.AccessExpiresAt, policy)
	setTokenCookie(w, r, RefreshCookieName, pair.RefreshToken, pair.RefreshExpiresAt, policy)
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time, policy TokenCookiePolicy) {
	if value == "" {
		return
	}
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   policy.secure(r),
		SameSite: policy.SameSite,
	})
}

// clearTokenCookies invalidates both token transports client-side.
func (h *Handler) clearTokenCookies(w http.ResponseWriter, r *http.Request) {
	policy := h.tokenCookiePolicy()
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0).UTC(),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   policy.secure(r),
			SameSite: policy.SameSite,
		})
	}
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	if r.URL != nil && strings.EqualFold(r.URL.Scheme, "https") {
		return true
	}
	return false
}
