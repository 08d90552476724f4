package api

import (
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

type postRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Content   string `json:"content"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) newPostResponse(post models.Post, callerID string) postResponse {
	return postResponse{
		ID:        post.ID,
		OwnerID:   post.OwnerID,
		Content:   post.Content,
		LikeCount: h.Store.CountLikes(models.LikeTargetPost, post.ID),
		IsLiked:   h.Store.HasLiked(models.LikeTargetPost, post.ID, callerID),
		CreatedAt: post.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Posts handles the channel post collection: anonymous listing (optionally
// filtered by owner) and authenticated creation.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		caller := callerID(r)
		posts := h.Store.ListPosts(r.URL.Query().Get("owner"))
		response := make([]postResponse, 0, len(posts))
		for _, post := range posts {
			response = append(response, h.newPostResponse(post, caller))
		}
		writeSuccess(w, http.StatusOK, "posts fetched successfully", response)
	case http.MethodPost:
		identity, ok := h.requireIdentity(w, r)
		if !ok {
			return
		}
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		post, err := h.Store.CreatePost(identity.ID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "post created successfully", h.newPostResponse(post, identity.ID))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// PostByID handles fetching, editing, and deleting a single post. Mutations
// require the post's owner.
func (h *Handler) PostByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/posts/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, apperr.New(apperr.NotFound, "post does not exist"))
		return
	}

	post, exists := h.Store.GetPost(id)
	if !exists {
		writeError(w, apperr.New(apperr.NotFound, "post does not exist"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeSuccess(w, http.StatusOK, "post fetched successfully", h.newPostResponse(post, callerID(r)))
	case http.MethodPatch:
		identity, ok := h.requireOwner(w, r, post.OwnerID)
		if !ok {
			return
		}
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdatePost(post.ID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "post updated successfully", h.newPostResponse(updated, identity.ID))
	case http.MethodDelete:
		if _, ok := h.requireOwner(w, r, post.OwnerID); !ok {
			return
		}
		if err := h.Store.DeletePost(post.ID); err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "post deleted successfully", nil)
	default:
		methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}
