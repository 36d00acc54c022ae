package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a video or rendition does not exist.
var ErrNotFound = errors.New("not found")

// Video is one entry in the index. Path points at the original file.
type Video struct {
	ID         string
	Filename   string
	SizeBytes  int64
	Duration   float64
	BitRate    int64
	Path       string
	UploadedAt time.Time
}

// Rendition is one transcoded variant of a video. Ready flips true when the
// transcode worker finishes the file.
type Rendition struct {
	VideoID string
	Quality string
	Path    string
	Ready   bool
}

// Repo wraps index queries.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a repository over db.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// UpsertVideo inserts or replaces a video row.
func (r *Repo) UpsertVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, filename, size_bytes, duration_seconds, bitrate, path, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			size_bytes = excluded.size_bytes,
			duration_seconds = excluded.duration_seconds,
			bitrate = excluded.bitrate,
			path = excluded.path,
			uploaded_at = excluded.uploaded_at`,
		v.ID, v.Filename, v.SizeBytes, v.Duration, v.BitRate, v.Path, v.UploadedAt.UTC())
	return err
}

// GetVideo fetches one video by ID.
func (r *Repo) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, size_bytes, duration_seconds, bitrate, path, uploaded_at
		FROM videos WHERE id = ?`, id)

	var v Video
	err := row.Scan(&v.ID, &v.Filename, &v.SizeBytes, &v.Duration, &v.BitRate, &v.Path, &v.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVideos returns the index, newest upload first.
func (r *Repo) ListVideos(ctx context.Context) ([]Video, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, size_bytes, duration_seconds, bitrate, path, uploaded_at
		FROM videos ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.Filename, &v.SizeBytes, &v.Duration, &v.BitRate, &v.Path, &v.UploadedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// DeleteVideo removes a video and, via the foreign key, its renditions.
func (r *Repo) DeleteVideo(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertRendition inserts or replaces a rendition row.
func (r *Repo) UpsertRendition(ctx context.Context, rd *Rendition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO renditions (video_id, quality, path, ready)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(video_id, quality) DO UPDATE SET
			path = excluded.path,
			ready = excluded.ready`,
		rd.VideoID, rd.Quality, rd.Path, rd.Ready)
	return err
}

// MarkRenditionReady records a finished transcode output.
func (r *Repo) MarkRenditionReady(ctx context.Context, videoID, quality, path string) error {
	return r.UpsertRendition(ctx, &Rendition{
		VideoID: videoID,
		Quality: quality,
		Path:    path,
		Ready:   true,
	})
}

// GetReadyRendition fetches a rendition only if its file is ready to serve.
func (r *Repo) GetReadyRendition(ctx context.Context, videoID, quality string) (*Rendition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT video_id, quality, path, ready
		FROM renditions WHERE video_id = ? AND quality = ? AND ready = 1`,
		videoID, quality)

	var rd Rendition
	err := row.Scan(&rd.VideoID, &rd.Quality, &rd.Path, &rd.Ready)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// ListRenditions returns all rendition rows for a video.
func (r *Repo) ListRenditions(ctx context.Context, videoID string) ([]Rendition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id, quality, path, ready
		FROM renditions WHERE video_id = ? ORDER BY quality`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rds []Rendition
	for rows.Next() {
		var rd Rendition
		if err := rows.Scan(&rd.VideoID, &rd.Quality, &rd.Path, &rd.Ready); err != nil {
			return nil, err
		}
		rds = append(rds, rd)
	}
	return rds, rows.Err()
}
