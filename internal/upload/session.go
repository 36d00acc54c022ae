// Package upload implements the single-use upload session controller.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/metrics"
)

// State is the upload session's position in its state machine. Succeeded
// and failed are terminal; a session never uploads twice.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrorKind classifies upload failures.
type ErrorKind int

const (
	// InvalidResponse: the server answered 2xx but the body was not the
	// expected document.
	InvalidResponse ErrorKind = iota

	// ServerRejected: the server answered with a non-2xx status.
	ServerRejected

	// NetworkError: the request never completed.
	NetworkError
)

// String returns the failure kind name.
func (k ErrorKind) String() string {
	switch k {
	case InvalidResponse:
		return "invalid_response"
	case ServerRejected:
		return "server_rejected"
	case NetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Error is a terminal upload failure.
type Error struct {
	Kind   ErrorKind
	Status int // set for ServerRejected
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case ServerRejected:
		return fmt.Sprintf("upload rejected by server (status %d)", e.Status)
	case InvalidResponse:
		return fmt.Sprintf("upload response unreadable: %v", e.Err)
	default:
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds upload session dependencies and settings.
type Config struct {
	// UploadURL is the multipart upload endpoint. Required.
	UploadURL string

	// HTTPClient performs the request. Defaults to a client with no
	// overall timeout; cancel via the Submit context instead, uploads
	// can legitimately run long.
	HTTPClient *http.Client

	// OnProgress receives the fraction uploaded, monotonically
	// non-decreasing in [0, 1]. Optional.
	OnProgress func(fraction float64)

	// OnComplete fires exactly once, on a 2xx response with a valid
	// body. Optional.
	OnComplete func(result api.UploadResult)

	// Metrics counts upload outcomes. Optional.
	Metrics *metrics.ClientCollector

	Logger *slog.Logger
}

// Session uploads one file. Create a new session per attempt.
type Session struct {
	uploadURL  string
	httpClient *http.Client
	onProgress func(float64)
	onComplete func(api.UploadResult)
	collector  *metrics.ClientCollector
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	fraction float64
}

// NewSession creates an idle upload session.
func NewSession(cfg Config) *Session {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		uploadURL:  cfg.UploadURL,
		httpClient: httpClient,
		onProgress: cfg.OnProgress,
		onComplete: cfg.OnComplete,
		collector:  cfg.Metrics,
		logger:     logger,
	}
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the fraction uploaded so far.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fraction
}

// Submit uploads the file at path as multipart field "video". It blocks
// until the server answers or ctx is canceled. The session is spent
// afterwards regardless of outcome.
func (s *Session) Submit(ctx context.Context, path string) (*api.UploadResult, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("upload session already used (state %s)", state)
	}
	s.state = StateUploading
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, s.fail(&Error{Kind: NetworkError, Err: err})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, s.fail(&Error{Kind: NetworkError, Err: err})
	}

	s.logger.Info("upload_starting",
		"path", path,
		"size", info.Size(),
		"url", s.uploadURL,
	)

	body, contentType := s.multipartBody(f, filepath.Base(path), info.Size())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, body)
	if err != nil {
		return nil, s.fail(&Error{Kind: NetworkError, Err: err})
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.fail(&Error{Kind: NetworkError, Err: err})
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, s.fail(&Error{
			Kind:   ServerRejected,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("status %s", resp.Status),
		})
	}

	var result api.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, s.fail(&Error{Kind: InvalidResponse, Err: err})
	}

	s.reportProgress(1)

	s.mu.Lock()
	s.state = StateSucceeded
	s.mu.Unlock()

	s.logger.Info("upload_succeeded",
		"video_id", result.VideoID,
		"filename", result.Filename,
	)
	if s.collector != nil {
		s.collector.RecordUpload("success")
	}
	if s.onComplete != nil {
		s.onComplete(result)
	}
	return &result, nil
}

// multipartBody streams the file through a multipart writer, counting file
// bytes for progress reporting.
func (s *Session) multipartBody(f *os.File, filename string, size int64) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	counted := &progressReader{
		r:      f,
		total:  size,
		report: s.reportProgress,
	}

	go func() {
		part, err := mw.CreateFormFile("video", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, counted); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType()
}

// fail marks the session failed and returns the error it was given.
func (s *Session) fail(uerr *Error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.mu.Unlock()

	s.logger.Warn("upload_failed",
		"kind", uerr.Kind.String(),
		"status", uerr.Status,
		"error", uerr.Err,
	)
	if s.collector != nil {
		s.collector.RecordUpload(uerr.Kind.String())
	}
	return uerr
}

// reportProgress forwards a fraction, clamped and monotonic.
func (s *Session) reportProgress(fraction float64) {
	if fraction > 1 {
		fraction = 1
	}

	s.mu.Lock()
	if fraction <= s.fraction {
		s.mu.Unlock()
		return
	}
	s.fraction = fraction
	s.mu.Unlock()

	if s.onProgress != nil {
		s.onProgress(fraction)
	}
}

// progressReader reports the fraction of total consumed as it is read.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(float64(p.read) / float64(p.total))
	}
	return n, err
}
