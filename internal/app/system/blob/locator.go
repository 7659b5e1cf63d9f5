// Package blob resolves a file's storage ref to its bytes. A ref points at
// either a path under the local upload root or a URL on the remote blob
// host; the locator hides the split behind one read path and knows when a
// public request can be answered with a redirect instead of a stream.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locator produces bytes or redirect targets for storage refs, and writes
// new local objects.
type Locator struct {
	local  storage.Store
	host   *HostClient
	logger *zap.Logger
}

// NewLocator creates a Locator over the local storage backend and the
// remote blob host client.
func NewLocator(local storage.Store, host *HostClient, logger *zap.Logger) *Locator {
	return &Locator{
		local:  local,
		host:   host,
		logger: logger,
	}
}

// Open returns a reader over the ref's bytes, fetching remote refs over
// HTTP and opening local refs from the upload root. A zero ref or a missing
// local path yields ErrNotFound.
func (l *Locator) Open(ctx context.Context, ref models.StorageRef) (io.ReadCloser, error) {
	switch {
	case ref.IsRemote():
		return l.host.Fetch(ctx, ref.URL)
	case ref.IsLocal():
		rc, err := l.local.Get(ctx, ref.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, ref.Path, err)
		}
		return rc, nil
	default:
		return nil, ErrNotFound
	}
}

// RedirectURL returns the public URL for a remote ref. Local refs have no
// redirect target and must be streamed.
func (l *Locator) RedirectURL(ref models.StorageRef) (string, bool) {
	if ref.IsRemote() {
		return ref.URL, true
	}
	return "", false
}

// SaveLocal writes r to the local upload root under a collision-resistant
// name (timestamp and short uuid prefixed onto the original name) and
// returns the stored path. No deduplication or content validation is
// attempted.
func (l *Locator) SaveLocal(ctx context.Context, r io.Reader, originalName, contentType string) (string, error) {
	path := fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), uuid.NewString()[:8], originalName)

	opts := &storage.PutOptions{ContentType: contentType}
	if err := l.local.Put(ctx, path, r, opts); err != nil {
		return "", fmt.Errorf("storing %s: %w", originalName, err)
	}

	return path, nil
}

// Upload pushes data to the remote blob host and returns its public URL.
func (l *Locator) Upload(ctx context.Context, data []byte, name string) (string, error) {
	return l.host.Upload(ctx, data, name)
}

// DeleteLocal removes a local object. Best effort: failures are logged,
// not returned, so purges can proceed even when bytes are already gone.
func (l *Locator) DeleteLocal(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := l.local.Delete(ctx, path); err != nil {
		l.logger.Warn("failed to delete local object",
			zap.String("path", path),
			zap.Error(err))
	}
}
