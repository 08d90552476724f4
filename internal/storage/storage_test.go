package storage

import (
	"path/filepath"
	"testing"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	aliceID := registerAlice(t, store)
	video, err := store.CreateVideo(aliceID, "First upload", "hello", "/media/videos/v1.mp4", "")
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}

	reopened, err := NewStorage(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	identity, ok := reopened.GetIdentity(aliceID)
	if !ok {
		t.Fatal("identity lost after reopen")
	}
	if identity.Username != "alice" {
		t.Fatalf("unexpected username %q", identity.Username)
	}
	if _, err := reopened.AuthenticateIdentity("alice", "pw123456"); err != nil {
		t.Fatalf("credentials lost after reopen: %v", err)
	}
	loaded, ok := reopened.GetVideo(video.ID)
	if !ok || loaded.OwnerID != aliceID {
		t.Fatalf("video lost or owner changed after reopen, ok=%v owner=%q", ok, loaded.OwnerID)
	}
}

func TestVideoLifecycle(t *testing.T) {
	store := newTestStorage(t)
	aliceID := registerAlice(t, store)

	video, err := store.CreateVideo(aliceID, "clip", "", "/media/videos/clip.mp4", "")
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	if video.OwnerID != aliceID {
		t.Fatal("owner must be the creator")
	}

	title := "renamed"
	published := false
	updated, err := store.UpdateVideo(video.ID, VideoUpdate{Title: &title, Published: &published})
	if err != nil {
		t.Fatalf("UpdateVideo: %v", err)
	}
	if updated.Title != "renamed" || updated.Published {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.OwnerID != aliceID {
		t.Fatal("update must never reassign the owner")
	}

	if _, err := store.CreateComment(aliceID, video.ID, "nice"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if err := store.DeleteVideo(video.ID); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	if comments := store.ListComments(video.ID); len(comments) != 0 {
		t.Fatalf("comments should be removed with the video, got %d", len(comments))
	}
	if err := store.DeleteVideo(video.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound on double delete, got %v", err)
	}
}

func TestToggleLike(t *testing.T) {
	store := newTestStorage(t)
	aliceID := registerAlice(t, store)
	video, err := store.CreateVideo(aliceID, "clip", "", "/media/videos/clip.mp4", "")
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}

	liked, err := store.ToggleLike(models.LikeTargetVideo, video.ID, aliceID)
	if err != nil || !liked {
		t.Fatalf("expected like on, got liked=%v err=%v", liked, err)
	}
	if !store.HasLiked(models.LikeTargetVideo, video.ID, aliceID) {
		t.Fatal("HasLiked should report true")
	}
	if store.CountLikes(models.LikeTargetVideo, video.ID) != 1 {
		t.Fatal("expected one like")
	}

	liked, err = store.ToggleLike(models.LikeTargetVideo, video.ID, aliceID)
	if err != nil || liked {
		t.Fatalf("expected like off, got liked=%v err=%v", liked, err)
	}
	if store.CountLikes(models.LikeTargetVideo, video.ID) != 0 {
		t.Fatal("expected zero likes after second toggle")
	}

	if _, err := store.ToggleLike(models.LikeTargetVideo, "missing", aliceID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for missing video, got %v", err)
	}
}

func TestToggleSubscription(t *testing.T) {
	store := newTestStorage(t)
	aliceID := registerAlice(t, store)
	bob, err := store.CreateIdentity(CreateIdentityParams{
		Username:  "bob",
		Email:     "b@x.com",
		FullName:  "Bob Example",
		Password:  "pw123456",
		AvatarURL: "/media/avatars/bob.png",
	})
	if err != nil {
		t.Fatalf("CreateIdentity bob: %v", err)
	}

	if _, err := store.ToggleSubscription(aliceID, aliceID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected Validation subscribing to self, got %v", err)
	}

	subscribed, err := store.ToggleSubscription(aliceID, bob.ID)
	if err != nil || !subscribed {
		t.Fatalf("expected subscription on, got %v err=%v", subscribed, err)
	}
	if !store.IsSubscribed(aliceID, bob.ID) {
		t.Fatal("IsSubscribed should report true")
	}
	if got := store.ListSubscribedChannelIDs(aliceID); len(got) != 1 || got[0] != bob.ID {
		t.Fatalf("unexpected channel list %v", got)
	}
	if store.CountSubscribers(bob.ID) != 1 {
		t.Fatal("expected one subscriber")
	}

	subscribed, err = store.ToggleSubscription(aliceID, bob.ID)
	if err != nil || subscribed {
		t.Fatalf("expected subscription off, got %v err=%v", subscribed, err)
	}
}

func TestPlaylistVideoMembership(t *testing.T) {
	store := newTestStorage(t)
	aliceID := registerAlice(t, store)
	video, err := store.CreateVideo(aliceID, "clip", "", "/media/videos/clip.mp4", "")
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	playlist, err := store.CreatePlaylist(aliceID, "favorites", "")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	withVideo, err := store.AddPlaylistVideo(playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}
	if len(withVideo.VideoIDs) != 1 || withVideo.VideoIDs[0] != video.ID {
		t.Fatalf("unexpected membership %v", withVideo.VideoIDs)
	}

	// Adding twice stays idempotent.
	again, err := store.AddPlaylistVideo(playlist.ID, video.ID)
	if err != nil || len(again.VideoIDs) != 1 {
		t.Fatalf("expected idempotent add, got %v err=%v", again.VideoIDs, err)
	}

	if err := store.DeleteVideo(video.ID); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	final, ok := store.GetPlaylist(playlist.ID)
	if !ok || len(final.VideoIDs) != 0 {
		t.Fatalf("deleted video should leave playlists, got %v", final.VideoIDs)
	}
}
