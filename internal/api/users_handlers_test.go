package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterCreatesIdentity(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := multipartRegisterRequest(t, registerForm{
		Fields:     registerFields("alice", "alice@example.com"),
		Avatar:     "avatar.png",
		CoverImage: "cover.png",
	})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var identity identityResponse
	env := decodeEnvelope(t, rec.Body, &identity)
	if !env.Success {
		t.Fatal("expected success envelope")
	}
	if identity.Username != "alice" {
		t.Fatalf("expected username alice, got %q", identity.Username)
	}
	if !strings.HasPrefix(identity.AvatarURL, "/media/avatars/") {
		t.Fatalf("expected avatar under /media/avatars/, got %q", identity.AvatarURL)
	}
	if !strings.HasPrefix(identity.CoverImageURL, "/media/covers/") {
		t.Fatalf("expected cover under /media/covers/, got %q", identity.CoverImageURL)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name     string
		form     registerForm
		wantCode int
	}{
		{
			name: "missing avatar",
			form: registerForm{
				Fields: registerFields("bob", "bob@example.com"),
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing username",
			form: registerForm{
				Fields: map[string]string{
					"email":    "bob@example.com",
					"fullName": "Bob",
					"password": "supersecret",
				},
				Avatar: "avatar.png",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "short password",
			form: registerForm{
				Fields: map[string]string{
					"username": "bob",
					"email":    "bob@example.com",
					"fullName": "Bob",
					"password": "short",
				},
				Avatar: "avatar.png",
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestHandler(t)
			rec := httptest.NewRecorder()
			handler.Register(rec, multipartRegisterRequest(t, tc.form))
			if rec.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	handler, store := newTestHandler(t)
	createTestIdentity(t, store, "alice", "alice@example.com")

	req := multipartRegisterRequest(t, registerForm{
		Fields: registerFields("alice", "other@example.com"),
		Avatar: "avatar.png",
	})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestLoginOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		payload  loginRequest
		wantCode int
	}{
		{
			name:     "unknown user",
			payload:  loginRequest{Username: "nobody", Password: "supersecret"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "wrong password",
			payload:  loginRequest{Username: "alice", Password: "not-it-at-all"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "by username",
			payload:  loginRequest{Username: "alice", Password: "supersecret"},
			wantCode: http.StatusOK,
		},
		{
			name:     "by email",
			payload:  loginRequest{Email: "alice@example.com", Password: "supersecret"},
			wantCode: http.StatusOK,
		},
		{
			name:     "blank password",
			payload:  loginRequest{Username: "alice"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing identifier",
			payload:  loginRequest{Password: "supersecret"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, store := newTestHandler(t)
			createTestIdentity(t, store, "alice", "alice@example.com")

			rec := httptest.NewRecorder()
			handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", tc.payload))
			if rec.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLoginIssuesTokensOverBothTransports(t *testing.T) {
	handler, store := newTestHandler(t)
	createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", loginRequest{
		Username: "alice",
		Password: "supersecret",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body authResponse
	decodeEnvelope(t, rec.Body, &body)
	if body.AccessToken == "" || body.RefreshToken == "" {
		t.Fatal("expected both tokens in the response body")
	}
	if body.AccessToken == body.RefreshToken {
		t.Fatal("expected distinct access and refresh tokens")
	}

	cookies := rec.Result().Cookies()
	access := findCookie(t, cookies, AccessCookieName)
	refresh := findCookie(t, cookies, RefreshCookieName)
	if access.Value != body.AccessToken {
		t.Fatal("access cookie does not match body token")
	}
	if refresh.Value != body.RefreshToken {
		t.Fatal("refresh cookie does not match body token")
	}
	if !access.HttpOnly || !refresh.HttpOnly {
		t.Fatal("token cookies must be http-only")
	}
}

func TestLoginCookieAttributes(t *testing.T) {
	cases := []struct {
		name         string
		configure    func(req *http.Request)
		policy       TokenCookiePolicy
		wantSecure   bool
		wantSameSite http.SameSite
	}{
		{
			name:         "insecure localhost defaults to non secure",
			configure:    func(req *http.Request) {},
			policy:       DefaultTokenCookiePolicy(),
			wantSecure:   false,
			wantSameSite: http.SameSiteStrictMode,
		},
		{
			name: "forwarded https enables secure cookie",
			configure: func(req *http.Request) {
				req.Header.Set("X-Forwarded-Proto", "https")
			},
			policy:       DefaultTokenCookiePolicy(),
			wantSecure:   true,
			wantSameSite: http.SameSiteStrictMode,
		},
		{
			name:      "secure policy forces secure flag",
			configure: func(req *http.Request) {},
			policy: TokenCookiePolicy{
				SameSite:   http.SameSiteLaxMode,
				SecureMode: TokenCookieSecureAlways,
			},
			wantSecure:   true,
			wantSameSite: http.SameSiteLaxMode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, store := newTestHandler(t)
			handler.CookiePolicy = tc.policy
			createTestIdentity(t, store, "alice", "alice@example.com")

			req := jsonRequest(t, http.MethodPost, "http://localhost/api/v1/users/login", loginRequest{
				Username: "alice",
				Password: "supersecret",
			})
			tc.configure(req)
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}
			cookie := findCookie(t, rec.Result().Cookies(), RefreshCookieName)
			if cookie.Secure != tc.wantSecure {
				t.Fatalf("expected secure=%v, got %v", tc.wantSecure, cookie.Secure)
			}
			if cookie.SameSite != tc.wantSameSite {
				t.Fatalf("expected samesite %v, got %v", tc.wantSameSite, cookie.SameSite)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(jsonRequest(t, http.MethodPost, "/api/v1/users/change-password", changePasswordRequest{
		OldPassword: "wrong-password",
		NewPassword: "evenmoresecret",
	}), identity)
	handler.ChangePassword(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = asIdentity(jsonRequest(t, http.MethodPost, "/api/v1/users/change-password", changePasswordRequest{
		OldPassword: "supersecret",
		NewPassword: "evenmoresecret",
	}), identity)
	handler.ChangePassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if _, err := store.AuthenticateIdentity("alice", "evenmoresecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := store.AuthenticateIdentity("alice", "supersecret"); err == nil {
		t.Fatal("old password still accepted")
	}
}

func TestCurrentUserExcludesSecrets(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil), identity)
	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatal("response leaked password hash")
	}
	if strings.Contains(rec.Body.String(), "pbkdf2") {
		t.Fatal("response leaked hash material")
	}
}

func TestCurrentUserRequiresAuthentication(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.CurrentUser(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateAccount(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(jsonRequest(t, http.MethodPatch, "/api/v1/users/update-account", updateAccountRequest{
		FullName: "Alice Cooper",
		Email:    "cooper@example.com",
	}), identity)
	handler.UpdateAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated identityResponse
	decodeEnvelope(t, rec.Body, &updated)
	if updated.FullName != "Alice Cooper" {
		t.Fatalf("expected updated name, got %q", updated.FullName)
	}
	if updated.Email != "cooper@example.com" {
		t.Fatalf("expected updated email, got %q", updated.Email)
	}
}

func TestUpdateAvatar(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(multipartFileRequest(t, http.MethodPatch, "/api/v1/users/avatar", "avatar", "new.png"), identity)
	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated identityResponse
	decodeEnvelope(t, rec.Body, &updated)
	if !strings.HasPrefix(updated.AvatarURL, "/media/avatars/") {
		t.Fatalf("expected avatar under /media/avatars/, got %q", updated.AvatarURL)
	}
	if updated.AvatarURL == identity.AvatarURL {
		t.Fatal("avatar url did not change")
	}
	record, ok := store.GetIdentity(identity.ID)
	if !ok || record.AvatarURL != updated.AvatarURL {
		t.Fatalf("stored avatar url %q does not match response %q", record.AvatarURL, updated.AvatarURL)
	}
}

func TestUpdateAvatarRequiresFile(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(multipartFileRequest(t, http.MethodPatch, "/api/v1/users/avatar", "avatar", ""), identity)
	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", rec.Code)
	}
	record, _ := store.GetIdentity(identity.ID)
	if record.AvatarURL != identity.AvatarURL {
		t.Fatal("avatar url changed despite rejected upload")
	}
}

func TestUpdateAvatarRequiresAuthentication(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.UpdateAvatar(rec, multipartFileRequest(t, http.MethodPatch, "/api/v1/users/avatar", "avatar", "new.png"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateCoverImage(t *testing.T) {
	handler, store := newTestHandler(t)
	identity := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	req := asIdentity(multipartFileRequest(t, http.MethodPatch, "/api/v1/users/cover-image", "coverImage", "banner.jpg"), identity)
	handler.UpdateCoverImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated identityResponse
	decodeEnvelope(t, rec.Body, &updated)
	if !strings.HasPrefix(updated.CoverImageURL, "/media/covers/") {
		t.Fatalf("expected cover under /media/covers/, got %q", updated.CoverImageURL)
	}
	record, ok := store.GetIdentity(identity.ID)
	if !ok || record.CoverImageURL != updated.CoverImageURL {
		t.Fatalf("stored cover url %q does not match response %q", record.CoverImageURL, updated.CoverImageURL)
	}
	if record.AvatarURL != identity.AvatarURL {
		t.Fatal("avatar url changed by cover image update")
	}
}

func TestProfileByID(t *testing.T) {
	handler, store := newTestHandler(t)
	channel := createTestIdentity(t, store, "alice", "alice@example.com")
	viewer := createTestIdentity(t, store, "bob", "bob@example.com")
	if _, err := store.ToggleSubscription(viewer.ID, channel.ID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ProfileByID(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/c/"+channel.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 anonymous, got %d", rec.Code)
	}
	var profile profileResponse
	decodeEnvelope(t, rec.Body, &profile)
	if profile.IsSubscribed {
		t.Fatal("anonymous caller cannot be subscribed")
	}
	if profile.SubscriberCount != 1 {
		t.Fatalf("expected 1 subscriber, got %d", profile.SubscriberCount)
	}

	rec = httptest.NewRecorder()
	req := asIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/"+channel.ID, nil), viewer)
	handler.ProfileByID(rec, req)
	decodeEnvelope(t, rec.Body, &profile)
	if !profile.IsSubscribed {
		t.Fatal("expected isSubscribed for the subscriber")
	}
}

func TestProfileByUsername(t *testing.T) {
	handler, store := newTestHandler(t)
	channel := createTestIdentity(t, store, "alice", "alice@example.com")

	rec := httptest.NewRecorder()
	handler.ProfileByID(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/c/alice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 by username, got %d (%s)", rec.Code, rec.Body.String())
	}
	var profile profileResponse
	decodeEnvelope(t, rec.Body, &profile)
	if profile.ID != channel.ID {
		t.Fatalf("expected channel %s, got %s", channel.ID, profile.ID)
	}

	rec = httptest.NewRecorder()
	handler.ProfileByID(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/c/nobody", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown username, got %d", rec.Code)
	}
}
