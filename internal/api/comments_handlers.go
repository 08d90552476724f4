package api

import (
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

type commentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	VideoID   string `json:"videoId"`
	Content   string `json:"content"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) newCommentResponse(comment models.Comment, callerID string) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		OwnerID:   comment.OwnerID,
		VideoID:   comment.VideoID,
		Content:   comment.Content,
		LikeCount: h.Store.CountLikes(models.LikeTargetComment, comment.ID),
		IsLiked:   h.Store.HasLiked(models.LikeTargetComment, comment.ID, callerID),
		CreatedAt: comment.CreatedAt.Format(time.RFC3339Nano),
	}
}

// videoComments handles /api/v1/videos/{id}/comments: anonymous listing and
// authenticated creation.
func (h *Handler) videoComments(w http.ResponseWriter, r *http.Request, video models.Video) {
	switch r.Method {
	case http.MethodGet:
		caller := callerID(r)
		if !video.Published && video.OwnerID != caller {
			writeError(w, apperr.New(apperr.NotFound, "video does not exist"))
			return
		}
		comments := h.Store.ListComments(video.ID)
		response := make([]commentResponse, 0, len(comments))
		for _, comment := range comments {
			response = append(response, h.newCommentResponse(comment, caller))
		}
		writeSuccess(w, http.StatusOK, "comments fetched successfully", response)
	case http.MethodPost:
		identity, ok := h.requireIdentity(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		comment, err := h.Store.CreateComment(identity.ID, video.ID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "comment added successfully", h.newCommentResponse(comment, identity.ID))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// CommentByID handles editing and deleting a single comment; both mutations
// are restricted to the comment's owner.
func (h *Handler) CommentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/comments/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, apperr.New(apperr.NotFound, "comment does not exist"))
		return
	}

	comment, exists := h.Store.GetComment(id)
	if !exists {
		writeError(w, apperr.New(apperr.NotFound, "comment does not exist"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		identity, ok := h.requireOwner(w, r, comment.OwnerID)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdateComment(comment.ID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "comment updated successfully", h.newCommentResponse(updated, identity.ID))
	case http.MethodDelete:
		if _, ok := h.requireOwner(w, r, comment.OwnerID); !ok {
			return
		}
		if err := h.Store.DeleteComment(comment.ID); err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "comment deleted successfully", nil)
	default:
		methodNotAllowed(w, r, "PATCH, DELETE")
	}
}
