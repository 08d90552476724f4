package api

import (
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

type videoResponse struct {
	ID           string `json:"id"`
	OwnerID      string `json:"ownerId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	FileURL      string `json:"fileUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Published    bool   `json:"published"`
	LikeCount    int    `json:"likeCount"`
	IsLiked      bool   `json:"isLiked"`
	CreatedAt    string `json:"createdAt"`
}

// newVideoResponse decorates a video with like state for the caller; callerID
// is empty for anonymous requests, which always yields IsLiked=false.
func (h *Handler) newVideoResponse(video models.Video, callerID string) videoResponse {
	return videoResponse{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		FileURL:      video.FileURL,
		ThumbnailURL: video.ThumbnailURL,
		Published:    video.Published,
		LikeCount:    h.Store.CountLikes(models.LikeTargetVideo, video.ID),
		IsLiked:      h.Store.HasLiked(models.LikeTargetVideo, video.ID, callerID),
		CreatedAt:    video.CreatedAt.Format(time.RFC3339Nano),
	}
}

func callerID(r *http.Request) string {
	if identity, ok := IdentityFromContext(r.Context()); ok {
		return identity.ID
	}
	return ""
}

// Videos handles the collection: anonymous listing and authenticated upload.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		owner := r.URL.Query().Get("owner")
		videos := h.Store.ListVideos(owner)
		caller := callerID(r)
		response := make([]videoResponse, 0, len(videos))
		for _, video := range videos {
			if !video.Published && video.OwnerID != caller {
				continue
			}
			response = append(response, h.newVideoResponse(video, caller))
		}
		writeSuccess(w, http.StatusOK, "videos fetched successfully", response)
	case http.MethodPost:
		identity, ok := h.requireIdentity(w, r)
		if !ok {
			return
		}
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
			return
		}
		fileURL, err := h.saveUpload(r, "videoFile", "videos")
		if err != nil {
			writeError(w, err)
			return
		}
		if fileURL == "" {
			writeValidationError(w, "video file is required")
			return
		}
		thumbnailURL, err := h.saveUpload(r, "thumbnail", "thumbnails")
		if err != nil {
			h.cleanupUpload(fileURL)
			writeError(w, err)
			return
		}
		video, err := h.Store.CreateVideo(identity.ID, r.FormValue("title"), r.FormValue("description"), fileURL, thumbnailURL)
		if err != nil {
			h.cleanupUpload(fileURL)
			h.cleanupUpload(thumbnailURL)
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "video published successfully", h.newVideoResponse(video, identity.ID))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// VideoByID handles a single video and its comments sub-resource.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/videos/")
	if rest == "" {
		writeError(w, apperr.New(apperr.NotFound, "video id missing"))
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	video, exists := h.Store.GetVideo(id)
	if !exists {
		writeError(w, apperr.New(apperr.NotFound, "video does not exist"))
		return
	}

	if sub == "comments" {
		h.videoComments(w, r, video)
		return
	}
	if sub != "" {
		writeError(w, apperr.New(apperr.NotFound, "unknown video resource"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		caller := callerID(r)
		if !video.Published && video.OwnerID != caller {
			writeError(w, apperr.New(apperr.NotFound, "video does not exist"))
			return
		}
		writeSuccess(w, http.StatusOK, "video fetched successfully", h.newVideoResponse(video, caller))
	case http.MethodPatch:
		identity, ok := h.requireOwner(w, r, video.OwnerID)
		if !ok {
			return
		}
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdateVideo(video.ID, storage.VideoUpdate{
			Title:       req.Title,
			Description: req.Description,
			Published:   req.Published,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "video updated successfully", h.newVideoResponse(updated, identity.ID))
	case http.MethodDelete:
		if _, ok := h.requireOwner(w, r, video.OwnerID); !ok {
			return
		}
		if err := h.Store.DeleteVideo(video.ID); err != nil {
			writeError(w, err)
			return
		}
		h.cleanupUpload(video.FileURL)
		h.cleanupUpload(video.ThumbnailURL)
		writeSuccess(w, http.StatusOK, "video deleted successfully", nil)
	default:
		methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}
