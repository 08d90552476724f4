package api

import (
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type playlistResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoIDs    []string `json:"videoIds"`
	CreatedAt   string   `json:"createdAt"`
}

func newPlaylistResponse(playlist models.Playlist) playlistResponse {
	videoIDs := playlist.VideoIDs
	if videoIDs == nil {
		videoIDs = []string{}
	}
	return playlistResponse{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Name:        playlist.Name,
		Description: playlist.Description,
		VideoIDs:    videoIDs,
		CreatedAt:   playlist.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Playlists handles the collection: anonymous listing and authenticated
// creation.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		playlists := h.Store.ListPlaylists(r.URL.Query().Get("owner"))
		response := make([]playlistResponse, 0, len(playlists))
		for _, playlist := range playlists {
			response = append(response, newPlaylistResponse(playlist))
		}
		writeSuccess(w, http.StatusOK, "playlists fetched successfully", response)
	case http.MethodPost:
		identity, ok := h.requireIdentity(w, r)
		if !ok {
			return
		}
		var req createPlaylistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		playlist, err := h.Store.CreatePlaylist(identity.ID, req.Name, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "playlist created successfully", newPlaylistResponse(playlist))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// PlaylistByID handles a single playlist and its videos sub-resource:
//
//	GET    /api/v1/playlists/{id}
//	PATCH  /api/v1/playlists/{id}
//	DELETE /api/v1/playlists/{id}
//	POST   /api/v1/playlists/{id}/videos/{videoID}
//	DELETE /api/v1/playlists/{id}/videos/{videoID}
func (h *Handler) PlaylistByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/playlists/")
	if rest == "" {
		writeError(w, apperr.New(apperr.NotFound, "playlist id missing"))
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	playlist, exists := h.Store.GetPlaylist(id)
	if !exists {
		writeError(w, apperr.New(apperr.NotFound, "playlist does not exist"))
		return
	}

	if sub != "" {
		h.playlistVideos(w, r, playlist, sub)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeSuccess(w, http.StatusOK, "playlist fetched successfully", newPlaylistResponse(playlist))
	case http.MethodPatch:
		if _, ok := h.requireOwner(w, r, playlist.OwnerID); !ok {
			return
		}
		var req updatePlaylistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdatePlaylist(playlist.ID, storage.PlaylistUpdate{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "playlist updated successfully", newPlaylistResponse(updated))
	case http.MethodDelete:
		if _, ok := h.requireOwner(w, r, playlist.OwnerID); !ok {
			return
		}
		if err := h.Store.DeletePlaylist(playlist.ID); err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "playlist deleted successfully", nil)
	default:
		methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}

func (h *Handler) playlistVideos(w http.ResponseWriter, r *http.Request, playlist models.Playlist, sub string) {
	kind, videoID, _ := strings.Cut(sub, "/")
	if kind != "videos" || videoID == "" || strings.Contains(videoID, "/") {
		writeError(w, apperr.New(apperr.NotFound, "unknown playlist resource"))
		return
	}

	if _, ok := h.requireOwner(w, r, playlist.OwnerID); !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		updated, err := h.Store.AddPlaylistVideo(playlist.ID, videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "video added to playlist", newPlaylistResponse(updated))
	case http.MethodDelete:
		updated, err := h.Store.RemovePlaylistVideo(playlist.ID, videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "video removed from playlist", newPlaylistResponse(updated))
	default:
		methodNotAllowed(w, r, "POST, DELETE")
	}
}
