package storage

import (
	"sort"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreatePlaylist starts an empty playlist owned by ownerID.
func (s *Storage) CreatePlaylist(ownerID, name, description string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, apperr.New(apperr.Validation, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[ownerID]; !ok {
		return models.Playlist{}, ErrIdentityNotFound
	}

	id, err := generateID()
	if err != nil {
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "generate playlist id", err)
	}

	playlist := models.Playlist{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		VideoIDs:    []string{},
		CreatedAt:   time.Now().UTC(),
	}

	updated := cloneDataset(s.data)
	updated.Playlists[id] = playlist

	if err := s.persistDataset(updated); err != nil {
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "persist playlist", err)
	}
	s.data = updated
	return playlist, nil
}

// GetPlaylist fetches a playlist by ID.
func (s *Storage) GetPlaylist(id string) (models.Playlist, bool) {
	s.mu.RLock()
	playlist, ok := s.data.Playlists[id]
	s.mu.RUnlock()
	if ok && playlist.VideoIDs != nil {
		playlist.VideoIDs = append([]string(nil), playlist.VideoIDs...)
	}
	return playlist, ok
}

// ListPlaylists returns an owner's playlists, newest first.
func (s *Storage) ListPlaylists(ownerID string) []models.Playlist {
	s.mu.RLock()
	playlists := make([]models.Playlist, 0)
	for _, playlist := range s.data.Playlists {
		if ownerID != "" && playlist.OwnerID != ownerID {
			continue
		}
		if playlist.VideoIDs != nil {
			playlist.VideoIDs = append([]string(nil), playlist.VideoIDs...)
		}
		playlists = append(playlists, playlist)
	}
	s.mu.RUnlock()
	sort.Slice(playlists, func(i, j int) bool {
		return playlists[i].CreatedAt.After(playlists[j].CreatedAt)
	})
	return playlists
}

// UpdatePlaylist applies the non-nil metadata fields.
func (s *Storage) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return models.Playlist{}, apperr.New(apperr.NotFound, "playlist does not exist")
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Playlist{}, apperr.New(apperr.Validation, "name cannot be blank")
		}
		playlist.Name = name
	}
	if update.Description != nil {
		playlist.Description = strings.TrimSpace(*update.Description)
	}

	updated := cloneDataset(s.data)
	updated.Playlists[id] = playlist

	if err := s.persistDataset(updated); err != nil {
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "persist playlist update", err)
	}
	s.data = updated
	return updated.Playlists[id], nil
}

// AddPlaylistVideo appends a video to the playlist when not already present.
func (s *Storage) AddPlaylistVideo(id, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return models.Playlist{}, apperr.New(apperr.NotFound, "playlist does not exist")
	}
	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Playlist{}, apperr.New(apperr.NotFound, "video does not exist")
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return playlist, nil
		}
	}

	updated := cloneDataset(s.data)
	entry := updated.Playlists[id]
	entry.VideoIDs = append(entry.VideoIDs, videoID)
	updated.Playlists[id] = entry

	if err := s.persistDataset(updated); err != nil {
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "persist playlist video", err)
	}
	s.data = updated
	return entry, nil
}

// RemovePlaylistVideo drops a video from the playlist.
func (s *Storage) RemovePlaylistVideo(id, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Playlists[id]; !ok {
		return models.Playlist{}, apperr.New(apperr.NotFound, "playlist does not exist")
	}

	updated := cloneDataset(s.data)
	entry := updated.Playlists[id]
	entry.VideoIDs = removeString(entry.VideoIDs, videoID)
	updated.Playlists[id] = entry

	if err := s.persistDataset(updated); err != nil {
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "persist playlist video removal", err)
	}
	s.data = updated
	return entry, nil
}

// DeletePlaylist removes the playlist.
func (s *Storage) DeletePlaylist(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Playlists[id]; !ok {
		return apperr.New(apperr.NotFound, "playlist does not exist")
	}

	updated := cloneDataset(s.data)
	delete(updated.Playlists, id)

	if err := s.persistDataset(updated); err != nil {
		return apperr.Wrap(apperr.Internal, "persist playlist delete", err)
	}
	s.data = updated
	return nil
}
