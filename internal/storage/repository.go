package storage

import (
	"context"

	"clipstream/internal/models"
)

// Repository exposes the datastore operations required by the API handlers.
type Repository interface {
	Ping(ctx context.Context) error

	CreateIdentity(params CreateIdentityParams) (models.Identity, error)
	AuthenticateIdentity(identifier, password string) (models.Identity, error)
	GetIdentity(id string) (models.Identity, bool)
	FindIdentityByUsernameOrEmail(identifier string) (models.Identity, bool)
	UpdateIdentity(id string, update IdentityUpdate) (models.Identity, error)
	ChangePassword(id, oldPassword, newPassword string) error

	CreateVideo(ownerID, title, description, fileURL, thumbnailURL string) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(ownerID string) []models.Video
	UpdateVideo(id string, update VideoUpdate) (models.Video, error)
	DeleteVideo(id string) error

	CreateComment(ownerID, videoID, content string) (models.Comment, error)
	GetComment(id string) (models.Comment, bool)
	ListComments(videoID string) []models.Comment
	UpdateComment(id, content string) (models.Comment, error)
	DeleteComment(id string) error

	CreatePost(ownerID, content string) (models.Post, error)
	GetPost(id string) (models.Post, bool)
	ListPosts(ownerID string) []models.Post
	UpdatePost(id, content string) (models.Post, error)
	DeletePost(id string) error

	CreatePlaylist(ownerID, name, description string) (models.Playlist, error)
	GetPlaylist(id string) (models.Playlist, bool)
	ListPlaylists(ownerID string) []models.Playlist
	UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error)
	AddPlaylistVideo(id, videoID string) (models.Playlist, error)
	RemovePlaylistVideo(id, videoID string) (models.Playlist, error)
	DeletePlaylist(id string) error

	ToggleLike(target models.LikeTarget, resourceID, identityID string) (liked bool, err error)
	HasLiked(target models.LikeTarget, resourceID, identityID string) bool
	CountLikes(target models.LikeTarget, resourceID string) int

	ToggleSubscription(subscriberID, channelID string) (subscribed bool, err error)
	IsSubscribed(subscriberID, channelID string) bool
	CountSubscribers(channelID string) int
	ListSubscribedChannelIDs(subscriberID string) []string
}
