package storage

import (
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreateIdentity registers a new account. Usernames are stored lowercase and
// both username and email are unique across the platform.
func (s *Storage) CreateIdentity(params CreateIdentityParams) (models.Identity, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	email := strings.ToLower(strings.TrimSpace(params.Email))
	fullName := strings.TrimSpace(params.FullName)

	if username == "" || email == "" || fullName == "" || params.Password == "" {
		return models.Identity{}, apperr.New(apperr.Validation, "all fields are required")
	}
	if len(params.Password) < MinPasswordLength {
		return models.Identity{}, apperr.Newf(apperr.Validation, "password must be at least %d characters", MinPasswordLength)
	}
	if params.AvatarURL == "" {
		return models.Identity{}, apperr.New(apperr.Validation, "avatar is required")
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.Identity{}, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Identities {
		if existing.Username == username || strings.EqualFold(existing.Email, email) {
			return models.Identity{}, apperr.New(apperr.Conflict, "username or email already registered")
		}
	}

	id, err := generateID()
	if err != nil {
		return models.Identity{}, apperr.Wrap(apperr.Internal, "generate identity id", err)
	}

	identity := models.Identity{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     params.AvatarURL,
		CoverImageURL: params.CoverImageURL,
		PasswordHash:  hashed,
		CreatedAt:     time.Now().UTC(),
	}

	updated := cloneDataset(s.data)
	updated.Identities[id] = identity

	if err := s.persistDataset(updated); err != nil {
		return models.Identity{}, apperr.Wrap(apperr.Internal, "persist identity", err)
	}
	s.data = updated
	return identity, nil
}

// GetIdentity fetches an identity by ID.
func (s *Storage) GetIdentity(id string) (models.Identity, bool) {
	s.mu.RLock()
	identity, ok := s.data.Identities[id]
	s.mu.RUnlock()
	return identity, ok
}

// FindIdentityByUsernameOrEmail resolves a login identifier to an identity.
func (s *Storage) FindIdentityByUsernameOrEmail(identifier string) (models.Identity, bool) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	if needle == "" {
		return models.Identity{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.data.Identities {
		if identity.Username == needle || strings.EqualFold(identity.Email, needle) {
			return identity, true
		}
	}
	return models.Identity{}, false
}

// UpdateIdentity applies the non-nil account detail fields.
func (s *Storage) UpdateIdentity(id string, update IdentityUpdate) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.data.Identities[id]
	if !ok {
		return models.Identity{}, ErrIdentityNotFound
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email == "" {
			return models.Identity{}, apperr.New(apperr.Validation, "email cannot be blank")
		}
		for otherID, other := range s.data.Identities {
			if otherID != id && strings.EqualFold(other.Email, email) {
				return models.Identity{}, apperr.New(apperr.Conflict, "email already registered")
			}
		}
		identity.Email = email
	}
	if update.FullName != nil {
		fullName := strings.TrimSpace(*update.FullName)
		if fullName == "" {
			return models.Identity{}, apperr.New(apperr.Validation, "full name cannot be blank")
		}
		identity.FullName = fullName
	}
	if update.AvatarURL != nil {
		if *update.AvatarURL == "" {
			return models.Identity{}, apperr.New(apperr.Validation, "avatar cannot be blank")
		}
		identity.AvatarURL = *update.AvatarURL
	}
	if update.CoverImageURL != nil {
		identity.CoverImageURL = *update.CoverImageURL
	}

	updated := cloneDataset(s.data)
	updated.Identities[id] = identity

	if err := s.persistDataset(updated); err != nil {
		return models.Identity{}, apperr.Wrap(apperr.Internal, "persist identity update", err)
	}
	s.data = updated
	return identity, nil
}
