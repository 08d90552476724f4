package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
)

type subscriptionResponse struct {
	Subscribed      bool `json:"subscribed"`
	SubscriberCount int  `json:"subscriberCount"`
}

type subscribedChannelsResponse struct {
	ChannelIDs []string `json:"channelIds"`
}

// Subscriptions handles the caller's subscription list:
//
//	GET /api/v1/subscriptions
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	channelIDs := h.Store.ListSubscribedChannelIDs(identity.ID)
	if channelIDs == nil {
		channelIDs = []string{}
	}
	writeSuccess(w, http.StatusOK, "subscriptions fetched successfully", subscribedChannelsResponse{ChannelIDs: channelIDs})
}

// ToggleSubscription handles POST /api/v1/subscriptions/{channelID}, flipping
// the caller's subscription to the channel.
func (h *Handler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	channelID := strings.TrimPrefix(r.URL.Path, "/api/v1/subscriptions/")
	if channelID == "" || strings.Contains(channelID, "/") {
		writeError(w, apperr.New(apperr.NotFound, "channel does not exist"))
		return
	}

	subscribed, err := h.Store.ToggleSubscription(identity.ID, channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	message := "unsubscribed from channel"
	if subscribed {
		message = "subscribed to channel"
	}
	writeSuccess(w, http.StatusOK, message, subscriptionResponse{
		Subscribed:      subscribed,
		SubscriberCount: h.Store.CountSubscribers(channelID),
	})
}
