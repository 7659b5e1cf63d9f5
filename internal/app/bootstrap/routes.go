// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	filesfeature "github.com/dalemusser/cloudstore/internal/app/features/files"
	foldersfeature "github.com/dalemusser/cloudstore/internal/app/features/folders"
	healthfeature "github.com/dalemusser/cloudstore/internal/app/features/health"
	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/apicors"
	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/filecache"
	"github.com/dalemusser/cloudstore/internal/app/system/metrics"
	"github.com/dalemusser/cloudstore/internal/app/system/transcode"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Route groups:
//   - /api/files, /api/folders: Bearer token (when configured) plus the
//     owner header; permissive CORS for API consumers
//   - /public/files: no authentication, redirect-or-stream downloads
//   - /health, /metrics: operational endpoints
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	locator := blob.NewLocator(deps.FileStorage, deps.BlobHost, logger)
	compressor := transcode.NewService(
		file.New(deps.MongoDatabase),
		locator,
		appCfg.FfmpegPath,
		appCfg.FfmpegTimeout,
		logger,
	)
	// The public cache is shared with the trash cleanup job; Startup has
	// already created it.
	cache := publicCache
	if cache == nil {
		cache = filecache.New(appCfg.PublicCacheSize, appCfg.PublicCacheTTL)
	}

	filesHandler := filesfeature.NewHandler(
		deps.MongoDatabase,
		locator,
		compressor,
		cache,
		appCfg.MaxUploadBytes,
		logger,
	)
	foldersHandler := foldersfeature.NewHandler(deps.MongoDatabase, logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()

	// Global middleware: timeout first so nothing hangs, then CORS for
	// preflight, then the security headers and metrics.
	r.Use(chimw.Timeout(5 * time.Minute))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(metrics.Middleware())

	ownerMW := auth.RequireOwner(logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apicors.Middleware())
		r.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
		r.Mount("/files", filesfeature.Routes(filesHandler, ownerMW))
		r.Mount("/folders", foldersfeature.Routes(foldersHandler, ownerMW))
	})

	r.Mount("/public/files", filesfeature.PublicRoutes(filesHandler))

	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", promhttp.Handler())

	return r, nil
}
