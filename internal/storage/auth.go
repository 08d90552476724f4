package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"golang.org/x/crypto/pbkdf2"
)

// AuthenticateIdentity verifies credentials by username or email and returns
// the matching identity on success. A missing identity and a bad password are
// reported as distinct kinds so the boundary can map them to 404 and 401.
func (s *Storage) AuthenticateIdentity(identifier, password string) (models.Identity, error) {
	identity, ok := s.FindIdentityByUsernameOrEmail(identifier)
	if !ok {
		return models.Identity{}, ErrIdentityNotFound
	}
	if err := verifyPassword(identity.PasswordHash, password); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// ChangePassword verifies the old password and replaces the stored hash.
// Outstanding access and refresh tokens are deliberately left intact.
func (s *Storage) ChangePassword(id, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", MinPasswordLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.data.Identities[id]
	if !ok {
		return ErrIdentityNotFound
	}
	if err := verifyPassword(identity.PasswordHash, oldPassword); err != nil {
		return err
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "hash password", err)
	}

	updated := cloneDataset(s.data)
	identity.PasswordHash = hashed
	updated.Identities[id] = identity

	if err := s.persistDataset(updated); err != nil {
		return apperr.Wrap(apperr.Internal, "persist password change", err)
	}
	s.data = updated
	return nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, passwordHashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), salt, passwordHashIterations, passwordHashKeyLength, sha256.New)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedKey := base64.RawStdEncoding.EncodeToString(derived)
	return fmt.Sprintf("pbkdf2$sha256$%d$%s$%s", passwordHashIterations, encodedSalt, encodedKey), nil
}

func verifyPassword(encodedHash, candidate string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 5 {
		return apperr.New(apperr.Internal, "verify password: invalid hash format")
	}
	if parts[0] != "pbkdf2" || parts[1] != "sha256" {
		return apperr.New(apperr.Internal, "verify password: unsupported hash identifier")
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return apperr.New(apperr.Internal, "verify password: invalid iteration count")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return apperr.Wrap(apperr.Internal, "verify password: decode salt", err)
	}
	storedKey, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return apperr.Wrap(apperr.Internal, "verify password: decode hash", err)
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iterations, len(storedKey), sha256.New)
	if len(derived) != len(storedKey) || subtle.ConstantTimeCompare(derived, storedKey) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
