package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/camroll/camroll/internal/config"
	"github.com/camroll/camroll/internal/domain"
)

// Transferer writes one resource's bytes to one destination path. The
// call is synchronous and may be slow for network-backed resources.
// A failure never aborts the batch; the engine decides what to do.
type Transferer interface {
	Transfer(ctx context.Context, res domain.AssetResource, destPath string) error
}

// FileTransferer copies local resources and fetches remote ones over
// HTTP. Bytes land in a temp file next to the destination and are
// renamed into place, so a failed transfer leaves no partial output.
type FileTransferer struct {
	// client is used for short requests with an overall timeout
	client *http.Client
	// streamClient is used for streaming fetches without overall timeout
	streamClient *http.Client
	cfg          config.DownloadConfig
	fileMode     os.FileMode
	logger       *slog.Logger
}

// NewFileTransferer creates a transferer from download configuration.
func NewFileTransferer(cfg config.DownloadConfig, fileMode os.FileMode, logger *slog.Logger) *FileTransferer {
	streamTransport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
	}

	if fileMode == 0 {
		fileMode = 0o644
	}

	return &FileTransferer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		streamClient: &http.Client{
			Transport: streamTransport,
			// No Timeout - the stall reader bounds dead connections
		},
		cfg:      cfg,
		fileMode: fileMode,
		logger:   logger,
	}
}

// Transfer writes the resource to destPath, choosing a local copy or a
// remote fetch based on the resource's transfer handle.
func (t *FileTransferer) Transfer(ctx context.Context, res domain.AssetResource, destPath string) error {
	switch {
	case res.LocalPath != "":
		return t.copyLocal(res, destPath)
	case res.URL != "":
		return t.fetchRemote(ctx, res, destPath)
	default:
		return domain.NewExportError(res.AssetID, "transfer", domain.ErrNoTransferHandle)
	}
}

func (t *FileTransferer) copyLocal(res domain.AssetResource, destPath string) error {
	src, err := os.Open(res.LocalPath)
	if err != nil {
		return domain.NewExportError(res.AssetID, "open source", err)
	}
	defer src.Close()

	if err := t.writeTo(destPath, src); err != nil {
		return domain.NewExportError(res.AssetID, "write", err)
	}
	return nil
}

func (t *FileTransferer) fetchRemote(ctx context.Context, res domain.AssetResource, destPath string) error {
	retryCfg := RetryConfig{
		MaxAttempts:   t.cfg.MaxAttempts,
		InitialDelay:  t.cfg.RetryDelay,
		MaxDelay:      t.cfg.MaxRetryDelay,
		BackoffFactor: 2.0,
	}

	_, err := RetryWithCheck(ctx, retryCfg, func() (struct{}, error) {
		return struct{}{}, t.fetchOnce(ctx, res, destPath)
	}, isRetryableFetch)
	if err != nil {
		return domain.NewExportError(res.AssetID, "fetch", err)
	}
	return nil
}

func (t *FileTransferer) fetchOnce(ctx context.Context, res domain.AssetResource, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	resp, err := t.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusGone:
		return domain.ErrResourceGone
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if t.cfg.ReadTimeout > 0 {
		body = &stallReader{r: resp.Body, timeout: t.cfg.ReadTimeout, lastRead: time.Now()}
	}

	return t.writeTo(destPath, body)
}

// writeTo streams src into a temp file in the destination directory,
// then renames it into place.
func (t *FileTransferer) writeTo(destPath string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, t.fileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move to final location: %w", err)
	}
	return nil
}

func isRetryableFetch(err error) bool {
	if errors.Is(err, domain.ErrResourceGone) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Rate limits and transport errors are worth another attempt.
	return true
}

// stallReader fails a read when no data has arrived for timeout. A
// hung remote fetch otherwise stalls the whole job, since transfers
// carry no overall deadline.
type stallReader struct {
	r        io.Reader
	timeout  time.Duration
	lastRead time.Time
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.lastRead = time.Now()
		return n, err
	}
	if err == nil && time.Since(s.lastRead) > s.timeout {
		return n, fmt.Errorf("%w: no data received for %v", domain.ErrTransferStalled, s.timeout)
	}
	return n, err
}
