package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clipstream/internal/auth"
	"clipstream/internal/media"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.Storage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStorage(filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	tokens, err := auth.NewTokens(auth.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokens error: %v", err)
	}
	mediaStore, err := media.NewDiskStore(filepath.Join(dir, "media"))
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	manager := auth.NewManager(tokens)
	return NewHandler(store, manager, mediaStore, nil), store
}

func createTestIdentity(t *testing.T, store *storage.Storage, username, email string) models.Identity {
	t.Helper()
	identity, err := store.CreateIdentity(storage.CreateIdentityParams{
		Username:  username,
		Email:     email,
		FullName:  "Test Person",
		Password:  "supersecret",
		AvatarURL: "/media/avatars/test.png",
	})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	return identity
}

// asIdentity attaches the caller identity the way the auth middleware does.
func asIdentity(req *http.Request, identity models.Identity) *http.Request {
	ctx := ContextWithIdentity(req.Context(), Identity{ID: identity.ID, Username: identity.Username})
	return req.WithContext(ctx)
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return httptest.NewRequest(method, target, bytes.NewReader(body))
}

func decodeEnvelope(t *testing.T, body io.Reader, data any) envelope {
	t.Helper()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, raw)
	}
	if data != nil && env.Data != nil {
		nested, err := json.Marshal(env.Data)
		if err != nil {
			t.Fatalf("re-marshal data: %v", err)
		}
		if err := json.Unmarshal(nested, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

type registerForm struct {
	Fields     map[string]string
	Avatar     string
	CoverImage string
}

func multipartRegisterRequest(t *testing.T, form registerForm) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range form.Fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if form.Avatar != "" {
		part, err := writer.CreateFormFile("avatar", form.Avatar)
		if err != nil {
			t.Fatalf("create avatar part: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write avatar part: %v", err)
		}
	}
	if form.CoverImage != "" {
		part, err := writer.CreateFormFile("coverImage", form.CoverImage)
		if err != nil {
			t.Fatalf("create cover part: %v", err)
		}
		if _, err := part.Write([]byte("fake cover bytes")); err != nil {
			t.Fatalf("write cover part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func multipartFileRequest(t *testing.T, method, target, field, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create %s part: %v", field, err)
		}
		if _, err := part.Write([]byte("replacement image bytes")); err != nil {
			t.Fatalf("write %s part: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func registerFields(username, email string) map[string]string {
	return map[string]string{
		"username": username,
		"email":    email,
		"fullName": "Test Person",
		"password": "supersecret",
	}
}
