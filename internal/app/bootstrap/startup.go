// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/filecache"
	"github.com/dalemusser/cloudstore/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	publicCache = filecache.New(appCfg.PublicCacheSize, appCfg.PublicCacheTTL)
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// publicCache fronts the public download path. It is created here, before
// the handler is built, because the trash cleanup job invalidates purged
// entries and BuildHandler serves from the same instance.
var publicCache *filecache.Cache

// startTaskRunner initializes and starts the background task runner. The
// trash cleanup job is registered only when a retention window is set.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if appCfg.TrashRetention > 0 {
		files := file.New(deps.MongoDatabase)
		locator := blob.NewLocator(deps.FileStorage, deps.BlobHost, logger)
		taskRunner.Register(tasks.TrashCleanupJob(files, locator, publicCache, appCfg.TrashRetention, logger))
		logger.Info("trash cleanup enabled",
			zap.Duration("retention", appCfg.TrashRetention))
	}

	taskRunner.Start()
}
