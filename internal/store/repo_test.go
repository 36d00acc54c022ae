package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestVideoRoundTrip(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	v := &Video{
		ID:         "demo",
		Filename:   "demo.mp4",
		SizeBytes:  1048576,
		Duration:   12.5,
		BitRate:    2500000,
		Path:       "/videos/demo.mp4",
		UploadedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.UpsertVideo(ctx, v); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}

	got, err := repo.GetVideo(ctx, "demo")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Filename != v.Filename || got.SizeBytes != v.SizeBytes || got.Duration != v.Duration {
		t.Errorf("got %+v, want %+v", got, v)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	_, err := repo.GetVideo(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListVideosNewestFirst(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"oldest", "middle", "newest"} {
		v := &Video{
			ID:         id,
			Filename:   id + ".mp4",
			Path:       "/videos/" + id + ".mp4",
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.UpsertVideo(ctx, v); err != nil {
			t.Fatalf("UpsertVideo(%s): %v", id, err)
		}
	}

	videos, err := repo.ListVideos(ctx)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(videos))
	}
	if videos[0].ID != "newest" || videos[2].ID != "oldest" {
		t.Errorf("order = [%s %s %s], want newest first", videos[0].ID, videos[1].ID, videos[2].ID)
	}
}

func TestUpsertVideoReplaces(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	v := &Video{ID: "demo", Filename: "demo.mp4", Path: "/a", UploadedAt: time.Now().UTC()}
	if err := repo.UpsertVideo(ctx, v); err != nil {
		t.Fatal(err)
	}
	v.SizeBytes = 42
	v.Path = "/b"
	if err := repo.UpsertVideo(ctx, v); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetVideo(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if got.SizeBytes != 42 || got.Path != "/b" {
		t.Errorf("upsert did not replace: %+v", got)
	}

	videos, _ := repo.ListVideos(ctx)
	if len(videos) != 1 {
		t.Errorf("got %d rows after upsert, want 1", len(videos))
	}
}

func TestRenditionLifecycle(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	v := &Video{ID: "demo", Filename: "demo.mp4", Path: "/videos/demo.mp4", UploadedAt: time.Now().UTC()}
	if err := repo.UpsertVideo(ctx, v); err != nil {
		t.Fatal(err)
	}

	// Queued but not ready: not servable.
	if err := repo.UpsertRendition(ctx, &Rendition{VideoID: "demo", Quality: "high", Path: ""}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetReadyRendition(ctx, "demo", "high"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unready rendition served: err = %v, want ErrNotFound", err)
	}

	if err := repo.MarkRenditionReady(ctx, "demo", "high", "/videos/demo_high.mp4"); err != nil {
		t.Fatal(err)
	}

	rd, err := repo.GetReadyRendition(ctx, "demo", "high")
	if err != nil {
		t.Fatalf("GetReadyRendition: %v", err)
	}
	if rd.Path != "/videos/demo_high.mp4" || !rd.Ready {
		t.Errorf("unexpected rendition %+v", rd)
	}
}

func TestDeleteVideoCascades(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	v := &Video{ID: "demo", Filename: "demo.mp4", Path: "/videos/demo.mp4", UploadedAt: time.Now().UTC()}
	if err := repo.UpsertVideo(ctx, v); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkRenditionReady(ctx, "demo", "low", "/videos/demo_low.mp4"); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteVideo(ctx, "demo"); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	if _, err := repo.GetReadyRendition(ctx, "demo", "low"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rendition survived video delete: %v", err)
	}
	if err := repo.DeleteVideo(ctx, "demo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
