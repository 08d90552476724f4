package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// ToggleLike handles POST /api/v1/likes/{target}/{id}, flipping the caller's
// like on a video, comment, or post.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/likes/")
	targetName, resourceID, _ := strings.Cut(rest, "/")
	if resourceID == "" || strings.Contains(resourceID, "/") {
		writeError(w, apperr.New(apperr.NotFound, "unknown like target"))
		return
	}

	var target models.LikeTarget
	switch models.LikeTarget(targetName) {
	case models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetPost:
		target = models.LikeTarget(targetName)
	default:
		writeError(w, apperr.New(apperr.NotFound, "unknown like target"))
		return
	}

	liked, err := h.Store.ToggleLike(target, resourceID, identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	message := "like removed"
	if liked {
		message = "like added"
	}
	writeSuccess(w, http.StatusOK, message, likeResponse{
		Liked:     liked,
		LikeCount: h.Store.CountLikes(target, resourceID),
	})
}
