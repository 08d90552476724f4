package storage

import (
	"sort"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreateComment attaches a comment to a video on behalf of ownerID.
func (s *Storage) CreateComment(ownerID, videoID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.New(apperr.Validation, "content is required")
	}
	if len(content) > MaxCommentLength {
		return models.Comment{}, apperr.Newf(apperr.Validation, "comment exceeds %d characters", MaxCommentLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[ownerID]; !ok {
		return models.Comment{}, ErrIdentityNotFound
	}
	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Comment{}, apperr.New(apperr.NotFound, "video does not exist")
	}

	id, err := generateID()
	if err != nil {
		return models.Comment{}, apperr.Wrap(apperr.Internal, "generate comment id", err)
	}

	comment := models.Comment{
		ID:        id,
		OwnerID:   ownerID,
		VideoID:   videoID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	updated := cloneDataset(s.data)
	updated.Comments[id] = comment

	if err := s.persistDataset(updated); err != nil {
		return models.Comment{}, apperr.Wrap(apperr.Internal, "persist comment", err)
	}
	s.data = updated
	return comment, nil
}

// GetComment fetches a comment by ID.
func (s *Storage) GetComment(id string) (models.Comment, bool) {
	s.mu.RLock()
	comment, ok := s.data.Comments[id]
	s.mu.RUnlock()
	return comment, ok
}

// ListComments returns a video's comments, oldest first.
func (s *Storage) ListComments(videoID string) []models.Comment {
	s.mu.RLock()
	comments := make([]models.Comment, 0)
	for _, comment := range s.data.Comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	s.mu.RUnlock()
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments
}

// UpdateComment replaces a comment's content.
func (s *Storage) UpdateComment(id, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.New(apperr.Validation, "content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.data.Comments[id]
	if !ok {
		return models.Comment{}, apperr.New(apperr.NotFound, "comment does not exist")
	}
	comment.Content = content

	updated := cloneDataset(s.data)
	updated.Comments[id] = comment

	if err := s.persistDataset(updated); err != nil {
		return models.Comment{}, apperr.Wrap(apperr.Internal, "persist comment update", err)
	}
	s.data = updated
	return comment, nil
}

// DeleteComment removes the comment and its likes.
func (s *Storage) DeleteComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Comments[id]; !ok {
		return apperr.New(apperr.NotFound, "comment does not exist")
	}

	updated := cloneDataset(s.data)
	delete(updated.Comments, id)
	delete(updated.Likes, likeKey(models.LikeTargetComment, id))

	if err := s.persistDataset(updated); err != nil {
		return apperr.Wrap(apperr.Internal, "persist comment delete", err)
	}
	s.data = updated
	return nil
}
