package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

const maxUploadMemory = 32 << 20

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type identityResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatarUrl"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

type authResponse struct {
	User         identityResponse `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newIdentityResponse(identity models.Identity) identityResponse {
	return identityResponse{
		ID:            identity.ID,
		Username:      identity.Username,
		Email:         identity.Email,
		FullName:      identity.FullName,
		AvatarURL:     identity.AvatarURL,
		CoverImageURL: identity.CoverImageURL,
		CreatedAt:     identity.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Register creates an account from a multipart form carrying the identity
// fields plus a required avatar and optional cover image.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
		return
	}

	username := r.FormValue("username")
	email := r.FormValue("email")
	fullName := r.FormValue("fullName")
	password := r.FormValue("password")
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" ||
		strings.TrimSpace(fullName) == "" || password == "" {
		writeValidationError(w, "all fields are required")
		return
	}

	avatarURL, err := h.saveUpload(r, "avatar", "avatars")
	if err != nil {
		writeError(w, err)
		return
	}
	if avatarURL == "" {
		writeValidationError(w, "avatar file is required")
		return
	}
	coverURL, err := h.saveUpload(r, "coverImage", "covers")
	if err != nil {
		h.cleanupUpload(avatarURL)
		writeError(w, err)
		return
	}

	identity, err := h.Store.CreateIdentity(storage.CreateIdentityParams{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		h.cleanupUpload(avatarURL)
		h.cleanupUpload(coverURL)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "user registered successfully", newIdentityResponse(identity))
}

// saveUpload stores the named multipart file and returns its URL, or "" when
// the field is absent.
func (h *Handler) saveUpload(r *http.Request, field, category string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "invalid "+field+" upload", err)
	}
	defer file.Close()
	return h.saveMediaFile(header, file, field, category)
}

func (h *Handler) saveMediaFile(header *multipart.FileHeader, file multipart.File, field, category string) (string, error) {
	url, err := h.Media.Save(category, header.Filename, file)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "store "+field+" upload", err)
	}
	return url, nil
}

// cleanupUpload releases a stored file after a partial failure. Failures here
// are logged, never surfaced to the caller.
func (h *Handler) cleanupUpload(url string) {
	if url == "" {
		return
	}
	if err := h.Media.Remove(url); err != nil {
		h.Logger.Warn("cleanup upload failed", "url", url, "error", err)
	}
}

// Login verifies credentials and issues a token pair over both transports.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		writeValidationError(w, "username or email is required")
		return
	}

	identity, err := h.Store.AuthenticateIdentity(identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.Auth.Login(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, r, pair)
	writeSuccess(w, http.StatusOK, "user logged in successfully", authResponse{
		User:         newIdentityResponse(identity),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout clears the refresh slot and both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.Auth.Logout(r.Context(), identity.ID); err != nil {
		writeError(w, err)
		return
	}
	h.clearTokenCookies(w, r)
	writeSuccess(w, http.StatusOK, "user logged out", nil)
}

// RefreshToken rotates the presented refresh token into a new pair. The token
// arrives via cookie or JSON body; any verification or CAS failure is a 401.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}

	presented := ""
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSONAllowEmpty(r, &req); err != nil {
			writeError(w, err)
			return
		}
		presented = req.RefreshToken
	}
	if presented == "" {
		writeError(w, apperr.New(apperr.Unauthorized, "refresh token is required"))
		return
	}

	_, pair, err := h.Auth.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, r, pair)
	writeSuccess(w, http.StatusOK, "access token refreshed", tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// ChangePassword swaps the stored hash after verifying the old password.
// Outstanding tokens remain valid; only the credentials change.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.ChangePassword(identity.ID, req.OldPassword, req.NewPassword); err != nil {
		// A mismatched old password is caller input, not an auth failure.
		if errors.Is(err, storage.ErrInvalidCredentials) {
			writeValidationError(w, "invalid old password")
			return
		}
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "password changed successfully", nil)
}

// CurrentUser returns the caller's identity with secrets excluded.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	record, exists := h.Store.GetIdentity(identity.ID)
	if !exists {
		writeError(w, apperr.New(apperr.Unauthorized, "account no longer exists"))
		return
	}
	writeSuccess(w, http.StatusOK, "current user fetched successfully", newIdentityResponse(record))
}

// UpdateAccount patches the caller's full name and email.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, "PATCH")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" {
		writeValidationError(w, "fullName and email are required")
		return
	}
	updated, err := h.Store.UpdateIdentity(identity.ID, storage.IdentityUpdate{
		FullName: &req.FullName,
		Email:    &req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "account details updated successfully", newIdentityResponse(updated))
}

// UpdateAvatar replaces the caller's avatar with an uploaded image.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "avatar", "avatars", "avatar updated successfully")
}

// UpdateCoverImage replaces the caller's channel cover image.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "coverImage", "covers", "cover image updated successfully")
}

// updateProfileImage stores the uploaded file and swaps the stored URL. The
// replaced file is removed best-effort once the swap is recorded.
func (h *Handler) updateProfileImage(w http.ResponseWriter, r *http.Request, field, category, message string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, "PATCH")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
		return
	}
	url, err := h.saveUpload(r, field, category)
	if err != nil {
		writeError(w, err)
		return
	}
	if url == "" {
		writeValidationError(w, field+" file is required")
		return
	}

	previous, _ := h.Store.GetIdentity(identity.ID)
	var update storage.IdentityUpdate
	replaced := ""
	if field == "avatar" {
		update.AvatarURL = &url
		replaced = previous.AvatarURL
	} else {
		update.CoverImageURL = &url
		replaced = previous.CoverImageURL
	}

	updated, err := h.Store.UpdateIdentity(identity.ID, update)
	if err != nil {
		h.cleanupUpload(url)
		writeError(w, err)
		return
	}
	if replaced != "" && replaced != url {
		h.cleanupUpload(replaced)
	}
	writeSuccess(w, http.StatusOK, message, newIdentityResponse(updated))
}

type profileResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	AvatarURL       string `json:"avatarUrl"`
	CoverImageURL   string `json:"coverImageUrl,omitempty"`
	SubscriberCount int    `json:"subscriberCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
	VideoCount      int    `json:"videoCount"`
}

// ProfileByID serves a public channel profile, resolving the path segment as
// an identity ID or a username. Authentication is optional; when present it
// only changes the isSubscribed flag.
func (h *Handler) ProfileByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	ref := strings.TrimPrefix(r.URL.Path, "/api/v1/users/c/")
	if ref == "" || strings.Contains(ref, "/") {
		writeError(w, apperr.New(apperr.NotFound, "profile not found"))
		return
	}
	record, ok := h.Store.GetIdentity(ref)
	if !ok {
		record, ok = h.Store.FindIdentityByUsernameOrEmail(ref)
	}
	if !ok {
		writeError(w, apperr.New(apperr.NotFound, "profile not found"))
		return
	}

	response := profileResponse{
		ID:              record.ID,
		Username:        record.Username,
		FullName:        record.FullName,
		AvatarURL:       record.AvatarURL,
		CoverImageURL:   record.CoverImageURL,
		SubscriberCount: h.Store.CountSubscribers(record.ID),
		VideoCount:      len(h.Store.ListVideos(record.ID)),
	}
	if caller, authenticated := IdentityFromContext(r.Context()); authenticated {
		response.IsSubscribed = h.Store.IsSubscribed(caller.ID, record.ID)
	}
	writeSuccess(w, http.StatusOK, "profile fetched successfully", response)
}
