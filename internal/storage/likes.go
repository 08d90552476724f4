package storage

import (
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

func likeKey(target models.LikeTarget, resourceID string) string {
	return string(target) + ":" + resourceID
}

func (s *Storage) likeTargetExistsLocked(target models.LikeTarget, resourceID string) bool {
	switch target {
	case models.LikeTargetVideo:
		_, ok := s.data.Videos[resourceID]
		return ok
	case models.LikeTargetComment:
		_, ok := s.data.Comments[resourceID]
		return ok
	case models.LikeTargetPost:
		_, ok := s.data.Posts[resourceID]
		return ok
	default:
		return false
	}
}

// ToggleLike adds or removes identityID's like on the resource and reports the
// resulting state.
func (s *Storage) ToggleLike(target models.LikeTarget, resourceID, identityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[identityID]; !ok {
		return false, ErrIdentityNotFound
	}
	if !s.likeTargetExistsLocked(target, resourceID) {
		return false, apperr.Newf(apperr.NotFound, "%s does not exist", target)
	}

	key := likeKey(target, resourceID)
	_, liked := s.data.Likes[key][identityID]

	updated := cloneDataset(s.data)
	if liked {
		delete(updated.Likes[key], identityID)
		if len(updated.Likes[key]) == 0 {
			delete(updated.Likes, key)
		}
	} else {
		if updated.Likes[key] == nil {
			updated.Likes[key] = make(map[string]time.Time)
		}
		updated.Likes[key][identityID] = time.Now().UTC()
	}

	if err := s.persistDataset(updated); err != nil {
		return liked, apperr.Wrap(apperr.Internal, "persist like", err)
	}
	s.data = updated
	return !liked, nil
}

// HasLiked reports whether identityID currently likes the resource.
func (s *Storage) HasLiked(target models.LikeTarget, resourceID, identityID string) bool {
	if identityID == "" {
		return false
	}
	s.mu.RLock()
	_, ok := s.data.Likes[likeKey(target, resourceID)][identityID]
	s.mu.RUnlock()
	return ok
}

// CountLikes returns the number of likes on the resource.
func (s *Storage) CountLikes(target models.LikeTarget, resourceID string) int {
	s.mu.RLock()
	count := len(s.data.Likes[likeKey(target, resourceID)])
	s.mu.RUnlock()
	return count
}
