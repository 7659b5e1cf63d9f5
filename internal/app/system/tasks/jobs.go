package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/filecache"
	"go.uber.org/zap"
)

// TrashCleanupJob creates a job that permanently purges files that have sat
// in the trash longer than the retention window. Local bytes are removed
// best-effort; remote blobs stay on the host (it has no delete operation).
// Purged records are dropped from the public download cache so a purge is
// visible on the public path without waiting out the cache TTL.
//
// retention <= 0 disables the purge; callers should not register the job
// in that case.
func TrashCleanupJob(files *file.Store, locator *blob.Locator, cache *filecache.Cache, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "trash-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)

			expired, err := files.ListTrashedBefore(ctx, cutoff)
			if err != nil {
				return err
			}

			var purged int
			for _, f := range expired {
				if _, err := files.Purge(ctx, f.ID, f.OwnerID); err != nil {
					logger.Warn("trash cleanup: purge failed",
						zap.String("file_id", f.ID.Hex()),
						zap.Error(err))
					continue
				}
				if f.Storage.IsLocal() {
					locator.DeleteLocal(ctx, f.Storage.Path)
				}
				if cache != nil {
					cache.Invalidate(f.ID.Hex())
				}
				purged++
			}

			if purged > 0 {
				logger.Info("purged expired trash",
					zap.Int("purged", purged),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
