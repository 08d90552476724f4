package storage

import (
	"sort"
	"time"

	"clipstream/internal/apperr"
)

// ToggleSubscription subscribes or unsubscribes subscriberID to the channel
// owned by channelID and reports the resulting state.
func (s *Storage) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperr.New(apperr.Validation, "cannot subscribe to your own channel")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Identities[subscriberID]; !ok {
		return false, ErrIdentityNotFound
	}
	if _, ok := s.data.Identities[channelID]; !ok {
		return false, apperr.New(apperr.NotFound, "channel does not exist")
	}

	_, subscribed := s.data.Subscriptions[channelID][subscriberID]

	updated := cloneDataset(s.data)
	if subscribed {
		delete(updated.Subscriptions[channelID], subscriberID)
		if len(updated.Subscriptions[channelID]) == 0 {
			delete(updated.Subscriptions, channelID)
		}
	} else {
		if updated.Subscriptions[channelID] == nil {
			updated.Subscriptions[channelID] = make(map[string]time.Time)
		}
		updated.Subscriptions[channelID][subscriberID] = time.Now().UTC()
	}

	if err := s.persistDataset(updated); err != nil {
		return subscribed, apperr.Wrap(apperr.Internal, "persist subscription", err)
	}
	s.data = updated
	return !subscribed, nil
}

// IsSubscribed reports whether subscriberID follows the channel.
func (s *Storage) IsSubscribed(subscriberID, channelID string) bool {
	if subscriberID == "" {
		return false
	}
	s.mu.RLock()
	_, ok := s.data.Subscriptions[channelID][subscriberID]
	s.mu.RUnlock()
	return ok
}

// CountSubscribers returns the channel's subscriber count.
func (s *Storage) CountSubscribers(channelID string) int {
	s.mu.RLock()
	count := len(s.data.Subscriptions[channelID])
	s.mu.RUnlock()
	return count
}

// ListSubscribedChannelIDs returns the channels subscriberID follows.
func (s *Storage) ListSubscribedChannelIDs(subscriberID string) []string {
	s.mu.RLock()
	channels := make([]string, 0)
	for channelID, subscribers := range s.data.Subscriptions {
		if _, ok := subscribers[subscriberID]; ok {
			channels = append(channels, channelID)
		}
	}
	s.mu.RUnlock()
	sort.Strings(channels)
	return channels
}
