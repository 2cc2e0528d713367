package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"boorugram/internal/database"
	"boorugram/internal/models"

	"github.com/google/uuid"
)

const (
	fetchTimeout = 10 * time.Minute

	dirPerm = 0o755
)

// Service drains the downloads table with a single lazily started
// worker. Rows are claimed oldest-first, deleted on success, and kept
// with a recorded error string on failure until a manual retry.
type Service struct {
	db         *database.Database
	httpClient *http.Client
	dir        string
	userAgent  string
	log        *slog.Logger

	mu      sync.Mutex
	running bool
}

func New(db *database.Database, dir string, userAgent string, log *slog.Logger) *Service {
	return &Service{
		db:         db,
		httpClient: &http.Client{Timeout: fetchTimeout},
		dir:        dir,
		userAgent:  userAgent,
		log:        log,
	}
}

// Enqueue adds a post's file to the queue and arms the worker. The file
// name is <md5>.<ext>, so re-downloading the same post overwrites rather
// than duplicates.
func (s *Service) Enqueue(ctx context.Context, post *models.Post) (int64, error) {
	if post.File.URL == "" {
		return 0, errors.New("post has no downloadable file")
	}

	fileName := fmt.Sprintf("%s.%s", post.File.MD5, post.File.Ext)

	id, err := s.db.EnqueueDownload(ctx, post.ID, post.File.URL, fileName)
	if err != nil {
		return 0, fmt.Errorf("enqueue download: %w", err)
	}

	s.Start()

	return id, nil
}

// Retry re-queues a failed row at the tail and arms the worker.
func (s *Service) Retry(ctx context.Context, id int64) (int64, error) {
	newID, err := s.db.RequeueDownload(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("requeue download: %w", err)
	}

	s.Start()

	return newID, nil
}

func (s *Service) List(ctx context.Context) ([]models.Download, error) {
	return s.db.ListDownloads(ctx)
}

// Start launches the queue worker. A second Start while the worker is
// alive is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	go s.drain()
}

// Running reports whether the worker goroutine is alive.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *Service) drain() {
	ctx := context.Background()

	for {
		dl, err := s.db.NextPendingDownload(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to claim pending download",
				"error", err)

			s.stop(ctx)
			return
		}

		if dl == nil {
			s.stop(ctx)
			return
		}

		if err = s.fetch(ctx, dl); err != nil {
			s.log.WarnContext(ctx, "Download failed",
				"error", err,
				"downloadID", dl.ID,
				"postID", dl.PostID,
				"url", dl.URL)

			if failErr := s.db.FailDownload(ctx, dl.ID, err.Error()); failErr != nil {
				s.log.ErrorContext(ctx, "Failed to record download error",
					"error", failErr,
					"downloadID", dl.ID)
			}
			continue
		}

		if err = s.db.CompleteDownload(ctx, dl.ID); err != nil {
			s.log.ErrorContext(ctx, "Failed to remove completed download",
				"error", err,
				"downloadID", dl.ID)
		}

		s.log.InfoContext(ctx, "Download completed",
			"downloadID", dl.ID,
			"postID", dl.PostID,
			"fileName", dl.FileName)
	}
}

// stop clears the running flag, then re-arms if a row slipped in while
// the flag was still set and its Enqueue saw the worker as alive.
func (s *Service) stop(ctx context.Context) {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	dl, err := s.db.NextPendingDownload(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to re-check pending downloads",
			"error", err)
		return
	}

	if dl != nil {
		s.Start()
	}
}

func (s *Service) fetch(ctx context.Context, dl *models.Download) error {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, dl.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"downloadID", dl.ID)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err = os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	// Write to a uuid-named temp file first so a crashed worker never
	// leaves a half-written file under the final name.
	tmpPath := filepath.Join(s.dir, ".partial-"+uuid.NewString())

	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err = io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write file body: %w", err)
	}

	if err = tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	finalPath := filepath.Join(s.dir, dl.FileName)
	if err = os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}
