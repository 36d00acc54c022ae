package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/logging"
)

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not really an mp4"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return logging.NewLoggerWithWriter(io.Discard, "json", "info")
}

func TestRunUploadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("video"); err != nil {
			t.Errorf("missing video form field: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok","video_id":"vid123","filename":"clip.mp4"}`)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, 5*time.Second, nil)

	var out strings.Builder
	code := runUpload(context.Background(), client, quietLogger(), writeTempVideo(t), &out)
	if code != 0 {
		t.Fatalf("runUpload = %d, want 0", code)
	}
	if !strings.Contains(out.String(), `Uploaded clip.mp4 as "vid123"`) {
		t.Errorf("output %q missing upload confirmation", out.String())
	}
}

func TestRunUploadServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported container", http.StatusUnsupportedMediaType)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, 5*time.Second, nil)

	var out strings.Builder
	if code := runUpload(context.Background(), client, quietLogger(), writeTempVideo(t), &out); code != 1 {
		t.Fatalf("runUpload = %d, want 1", code)
	}
}

func TestRunUploadMissingFile(t *testing.T) {
	client := api.NewClient("http://backend:8085", 5*time.Second, nil)

	var out strings.Builder
	path := filepath.Join(t.TempDir(), "absent.mp4")
	if code := runUpload(context.Background(), client, quietLogger(), path, &out); code != 1 {
		t.Fatalf("runUpload = %d, want 1", code)
	}
}
