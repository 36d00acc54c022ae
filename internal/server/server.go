package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/store"
	"github.com/clipstream/clipstream/internal/transcode"
)

// Config holds backend server dependencies and settings.
type Config struct {
	// ListenAddr is the bind address, e.g. ":8085".
	ListenAddr string

	// VideoDir receives uploaded files and renditions.
	VideoDir string

	// FFprobePath probes uploads for metadata. Empty skips probing.
	FFprobePath string

	// Repo is the video index. Required.
	Repo *store.Repo

	// Worker queues rendition transcodes after upload. Optional.
	Worker *transcode.Worker

	// Registry tracks open viewer streams. Required.
	Registry *Registry

	// Metrics counts requests and transfers. Optional.
	Metrics *metrics.ServerCollector

	// PromRegistry backs the /metrics endpoint. Optional.
	PromRegistry *prometheus.Registry

	Logger *slog.Logger
}

// Server is the backend HTTP server.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	router   *gin.Engine
	registry *Registry
	server   *http.Server
}

// New creates the server and wires its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		registry: cfg.Registry,
		server: &http.Server{
			Addr:        cfg.ListenAddr,
			Handler:     router,
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
	}

	router.Use(gin.Recovery(), s.requestLogger())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/videos", s.handleListVideos)
		apiGroup.POST("/upload", s.handleUpload)
		apiGroup.GET("/stream/:videoID/stats", s.handleStreamStats)
	}

	router.GET("/stream/:videoID", s.handleStream)
	router.GET("/health", s.handleHealth)
	if cfg.PromRegistry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.PromRegistry, promhttp.HandlerOpts{})))
	}

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in a goroutine. Use Shutdown to stop.
func (s *Server) Start() error {
	s.logger.Info("server_starting", "addr", s.cfg.ListenAddr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server_error", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server_shutting_down")
	return s.server.Shutdown(ctx)
}

// requestLogger logs each request and feeds the request counter.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		status := c.Writer.Status()

		s.logger.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordRequest(handler, status)
		}
	}
}

// handleListVideos serves the video index.
func (s *Server) handleListVideos(c *gin.Context) {
	videos, err := s.cfg.Repo.ListVideos(c.Request.Context())
	if err != nil {
		s.logger.Error("list_videos_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index unavailable"})
		return
	}

	out := make([]api.Video, 0, len(videos))
	for _, v := range videos {
		out = append(out, api.Video{
			ID:       v.ID,
			Filename: v.Filename,
			Size:     v.SizeBytes,
			Metadata: api.VideoMetadata{Duration: v.Duration},
		})
	}
	c.JSON(http.StatusOK, gin.H{"videos": out})
}

// handleUpload accepts a multipart upload, indexes it, and queues rendition
// transcodes. The response is served once the original is safely stored;
// renditions catch up in the background.
func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing form field 'video'"})
		return
	}

	videoID := slugify(strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)))
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename yields an empty video id"})
		return
	}

	dstPath := filepath.Join(s.cfg.VideoDir, videoID+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dstPath); err != nil {
		s.logger.Error("upload_store_failed", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}

	v := &store.Video{
		ID:         videoID,
		Filename:   file.Filename,
		SizeBytes:  file.Size,
		Path:       dstPath,
		UploadedAt: time.Now().UTC(),
	}

	if s.cfg.FFprobePath != "" {
		if info, err := media.Probe(c.Request.Context(), s.cfg.FFprobePath, dstPath); err != nil {
			s.logger.Warn("upload_probe_failed", "video_id", videoID, "error", err)
		} else {
			v.Duration = info.Duration
			v.BitRate = info.BitRate
		}
	}

	if err := s.cfg.Repo.UpsertVideo(c.Request.Context(), v); err != nil {
		s.logger.Error("upload_index_failed", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not index upload"})
		return
	}

	queued := 0
	if s.cfg.Worker != nil {
		queued = s.cfg.Worker.EnqueueAll(videoID, dstPath)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordUpload(file.Size)
	}

	s.logger.Info("upload_accepted",
		"video_id", videoID,
		"filename", file.Filename,
		"size", file.Size,
		"renditions_queued", queued,
	)

	c.JSON(http.StatusOK, api.UploadResult{
		Status:   "success",
		VideoID:  videoID,
		Filename: file.Filename,
		Message:  fmt.Sprintf("upload accepted, %d renditions queued", queued),
	})
}

// handleStream serves the video file, range-capable, registering the viewer
// for the duration of the request. A rendition that is not ready falls back
// to the original file.
func (s *Server) handleStream(c *gin.Context) {
	videoID := c.Param("videoID")

	quality, err := api.ParseQuality(c.DefaultQuery("quality", "auto"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := s.cfg.Repo.GetVideo(c.Request.Context(), videoID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		s.logger.Error("stream_lookup_failed", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index unavailable"})
		return
	}

	path := v.Path
	if quality != api.QualityAuto {
		if rd, err := s.cfg.Repo.GetReadyRendition(c.Request.Context(), videoID, quality.String()); err == nil {
			path = rd.Path
		}
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("stream_open_failed", "video_id", videoID, "path", path, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "video file missing"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "video file unreadable"})
		return
	}

	handle := s.registry.Open(videoID)
	defer handle.Close()

	c.Header("Content-Type", "video/mp4")
	w := &countingWriter{ResponseWriter: c.Writer, handle: handle}
	http.ServeContent(w, c.Request, filepath.Base(path), info.ModTime(), f)
}

// handleStreamStats serves live viewer stats for one video.
func (s *Server) handleStreamStats(c *gin.Context) {
	videoID := c.Param("videoID")

	v, err := s.cfg.Repo.GetVideo(c.Request.Context(), videoID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index unavailable"})
		return
	}

	active, totalBytes, avgBitrate := s.registry.Stats(videoID)
	if active == 0 {
		// No open streams to measure: report the container bitrate.
		avgBitrate = float64(v.BitRate)
	}

	c.JSON(http.StatusOK, api.StreamStats{
		VideoID:          videoID,
		ActiveStreams:    active,
		TotalBytesServed: totalBytes,
		AverageBitrate:   avgBitrate,
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"active_streams": s.registry.ActiveCount(),
	})
}

// countingWriter feeds bytes written to the viewer into the stream handle
// as they go out, so stats see in-flight transfers.
type countingWriter struct {
	gin.ResponseWriter
	handle *StreamHandle
}

func (w *countingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	if n > 0 {
		w.handle.Add(int64(n))
	}
	return n, err
}

// slugify reduces a filename stem to a url-safe video id.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
