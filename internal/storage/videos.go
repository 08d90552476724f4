package storage

import (
	"sort"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreateVideo records an uploaded video owned by ownerID.
func (s *Storage) CreateVideo(ownerID, title, description, fileURL, thumbnailURL string) (models.Video, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Video{}, apperr.New(apperr.Validation, "title is required")
	}
	if fileURL == "" {
		return models.Video{}, apperr.New(apperr.Validation, "video file is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[ownerID]; !ok {
		return models.Video{}, ErrIdentityNotFound
	}

	id, err := generateID()
	if err != nil {
		return models.Video{}, apperr.Wrap(apperr.Internal, "generate video id", err)
	}

	video := models.Video{
		ID:           id,
		OwnerID:      ownerID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		FileURL:      fileURL,
		ThumbnailURL: thumbnailURL,
		Published:    true,
		CreatedAt:    time.Now().UTC(),
	}

	updated := cloneDataset(s.data)
	updated.Videos[id] = video

	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, apperr.Wrap(apperr.Internal, "persist video", err)
	}
	s.data = updated
	return video, nil
}

// GetVideo fetches a video by ID.
func (s *Storage) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	video, ok := s.data.Videos[id]
	s.mu.RUnlock()
	return video, ok
}

// ListVideos returns videos, optionally filtered by owner, newest first.
func (s *Storage) ListVideos(ownerID string) []models.Video {
	s.mu.RLock()
	videos := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if ownerID != "" && video.OwnerID != ownerID {
			continue
		}
		videos = append(videos, video)
	}
	s.mu.RUnlock()
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos
}

// UpdateVideo applies the non-nil metadata fields. Ownership is enforced by
// the caller; OwnerID is never touched here.
func (s *Storage) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.New(apperr.NotFound, "video does not exist")
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, apperr.New(apperr.Validation, "title cannot be blank")
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.Published != nil {
		video.Published = *update.Published
	}

	updated := cloneDataset(s.data)
	updated.Videos[id] = video

	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, apperr.Wrap(apperr.Internal, "persist video update", err)
	}
	s.data = updated
	return video, nil
}

// DeleteVideo removes the video along with its comments and likes.
func (s *Storage) DeleteVideo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[id]; !ok {
		return apperr.New(apperr.NotFound, "video does not exist")
	}

	updated := cloneDataset(s.data)
	delete(updated.Videos, id)
	delete(updated.Likes, likeKey(models.LikeTargetVideo, id))
	for commentID, comment := range updated.Comments {
		if comment.VideoID == id {
			delete(updated.Comments, commentID)
			delete(updated.Likes, likeKey(models.LikeTargetComment, commentID))
		}
	}
	for playlistID, playlist := range updated.Playlists {
		playlist.VideoIDs = removeString(playlist.VideoIDs, id)
		updated.Playlists[playlistID] = playlist
	}

	if err := s.persistDataset(updated); err != nil {
		return apperr.Wrap(apperr.Internal, "persist video delete", err)
	}
	s.data = updated
	return nil
}

func removeString(values []string, needle string) []string {
	filtered := values[:0]
	for _, v := range values {
		if v != needle {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
