package storage

import (
	"sort"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreatePost publishes a short post on ownerID's channel.
func (s *Storage) CreatePost(ownerID, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, apperr.New(apperr.Validation, "content is required")
	}
	if len(content) > MaxPostLength {
		return models.Post{}, apperr.Newf(apperr.Validation, "post exceeds %d characters", MaxPostLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[ownerID]; !ok {
		return models.Post{}, ErrIdentityNotFound
	}

	id, err := generateID()
	if err != nil {
		return models.Post{}, apperr.Wrap(apperr.Internal, "generate post id", err)
	}

	post := models.Post{
		ID:        id,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	updated := cloneDataset(s.data)
	updated.Posts[id] = post

	if err := s.persistDataset(updated); err != nil {
		return models.Post{}, apperr.Wrap(apperr.Internal, "persist post", err)
	}
	s.data = updated
	return post, nil
}

// GetPost fetches a post by ID.
func (s *Storage) GetPost(id string) (models.Post, bool) {
	s.mu.RLock()
	post, ok := s.data.Posts[id]
	s.mu.RUnlock()
	return post, ok
}

// ListPosts returns posts, optionally filtered by owner, newest first.
func (s *Storage) ListPosts(ownerID string) []models.Post {
	s.mu.RLock()
	posts := make([]models.Post, 0, len(s.data.Posts))
	for _, post := range s.data.Posts {
		if ownerID != "" && post.OwnerID != ownerID {
			continue
		}
		posts = append(posts, post)
	}
	s.mu.RUnlock()
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

// UpdatePost replaces a post's content.
func (s *Storage) UpdatePost(id, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, apperr.New(apperr.Validation, "content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.data.Posts[id]
	if !ok {
		return models.Post{}, apperr.New(apperr.NotFound, "post does not exist")
	}
	post.Content = content

	updated := cloneDataset(s.data)
	updated.Posts[id] = post

	if err := s.persistDataset(updated); err != nil {
		return models.Post{}, apperr.Wrap(apperr.Internal, "persist post update", err)
	}
	s.data = updated
	return post, nil
}

// DeletePost removes the post and its likes.
func (s *Storage) DeletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Posts[id]; !ok {
		return apperr.New(apperr.NotFound, "post does not exist")
	}

	updated := cloneDataset(s.data)
	delete(updated.Posts, id)
	delete(updated.Likes, likeKey(models.LikeTargetPost, id))

	if err := s.persistDataset(updated); err != nil {
		return apperr.Wrap(apperr.Internal, "persist post delete", err)
	}
	s.data = updated
	return nil
}
