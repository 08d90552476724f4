package storage

import (
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

const (
	passwordHashSaltLength = 16
	passwordHashKeyLength  = 32
	passwordHashIterations = 120000

	// MinPasswordLength applies to registration and password changes.
	MinPasswordLength = 8

	// MaxCommentLength bounds comment payloads.
	MaxCommentLength = 1000
	// MaxPostLength bounds short post payloads.
	MaxPostLength = 500
)

var (
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid credentials")
	// ErrIdentityNotFound is returned when no identity matches the lookup.
	ErrIdentityNotFound = apperr.New(apperr.NotFound, "identity does not exist")
)

type dataset struct {
	Identities    map[string]models.Identity      `json:"identities"`
	Videos        map[string]models.Video         `json:"videos"`
	Comments      map[string]models.Comment       `json:"comments"`
	Posts         map[string]models.Post          `json:"posts"`
	Playlists     map[string]models.Playlist      `json:"playlists"`
	Likes         map[string]map[string]time.Time `json:"likes"`
	Subscriptions map[string]map[string]time.Time `json:"subscriptions"`
}

// CreateIdentityParams carries the registration fields. AvatarURL is required;
// the media collaborator resolves it before the identity is persisted.
type CreateIdentityParams struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// IdentityUpdate mutates account details. Nil fields are left untouched.
type IdentityUpdate struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// VideoUpdate mutates video metadata. Nil fields are left untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Published   *bool
}

// PlaylistUpdate mutates playlist metadata. Nil fields are left untouched.
type PlaylistUpdate struct {
	Name        *string
	Description *string
}
