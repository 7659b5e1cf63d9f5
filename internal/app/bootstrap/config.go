// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "CLOUDSTORE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, blob_host_endpoint, etc.
//   - Environment variables: CLOUDSTORE_MONGO_URI, CLOUDSTORE_BLOB_HOST_ENDPOINT, etc.
//   - Command-line flags: --mongo_uri, --blob_host_endpoint, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cloudstore", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// API key configuration (Bearer token auth on /api routes)
	{Name: "api_key", Default: "", Desc: "API key for API access (leave empty to disable API key auth)"},

	// Local file storage configuration
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},

	// Remote blob host configuration
	{Name: "blob_host_endpoint", Default: "", Desc: "Upload endpoint of the remote blob host (empty disables remote uploads)"},
	{Name: "blob_host_key", Default: "", Desc: "Bearer token for the remote blob host"},

	// Compression pipeline configuration
	{Name: "ffmpeg_path", Default: "ffmpeg", Desc: "Path to the ffmpeg binary for video compression"},
	{Name: "ffmpeg_timeout", Default: "2m", Desc: "Timeout per ffmpeg invocation (e.g., 2m, 90s)"},

	// Upload limits
	{Name: "max_upload_bytes", Default: 33554432, Desc: "Multipart upload parse limit in bytes (default: 32 MiB)"},

	// Trash retention
	{Name: "trash_retention", Default: "0", Desc: "Purge trashed files older than this (e.g., 720h); 0 disables"},

	// Public download cache
	{Name: "public_cache_size", Default: 1024, Desc: "Max entries in the public download cache"},
	{Name: "public_cache_ttl", Default: "1m", Desc: "TTL for public download cache entries"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		APIKey: appValues.String("api_key"),

		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		BlobHostEndpoint: appValues.String("blob_host_endpoint"),
		BlobHostKey:      appValues.String("blob_host_key"),

		FfmpegPath:    appValues.String("ffmpeg_path"),
		FfmpegTimeout: appValues.Duration("ffmpeg_timeout", 2*time.Minute),

		MaxUploadBytes: int64(appValues.Int("max_upload_bytes")),

		TrashRetention: appValues.Duration("trash_retention", 0),

		PublicCacheSize: appValues.Int("public_cache_size"),
		PublicCacheTTL:  appValues.Duration("public_cache_ttl", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", appCfg.MaxUploadBytes)
	}

	if appCfg.BlobHostEndpoint == "" {
		logger.Warn("blob host endpoint not configured; compression uploads and remote fetches will fail")
	}

	return nil
}
