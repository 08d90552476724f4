// Package media stores uploaded image and video files on behalf of the API.
// It stands in for the external media pipeline: handlers hand it raw bytes and
// receive back a serveable URL path.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store saves uploaded files and removes them again during best-effort
// cleanup after a partial failure.
type Store interface {
	Save(category string, filename string, content io.Reader) (url string, err error)
	Remove(url string) error
}

// DiskStore writes uploads beneath a root directory and serves them under the
// /media/ URL prefix.
type DiskStore struct {
	root string
}

// NewDiskStore prepares the upload root directory.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save persists the content under a random name that keeps the original
// extension, and returns the URL path it will be served from.
func (s *DiskStore) Save(category, filename string, content io.Reader) (string, error) {
	category = sanitizeCategory(category)
	if category == "" {
		return "", fmt.Errorf("media category is required")
	}
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name, err := randomName(filename)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return path.Join("/media", category, name), nil
}

// Remove deletes a previously saved file by its URL path. Missing files are
// not an error; Remove is used for best-effort cleanup only.
func (s *DiskStore) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, "/media/")
	if !ok || rel == "" {
		return fmt.Errorf("not a media url: %q", url)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("invalid media path: %q", url)
	}
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func sanitizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	var builder strings.Builder
	for _, r := range category {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func randomName(original string) (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate media name: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 8 {
		ext = ""
	}
	return hex.EncodeToString(bytes) + ext, nil
}
