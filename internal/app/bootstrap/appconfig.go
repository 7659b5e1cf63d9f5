// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// API key authentication (for API consumers)
	// When set, enables Bearer token authentication for /api/* routes.
	// Leave empty to disable API key authentication.
	APIKey string

	// Local file storage configuration
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// Remote blob host configuration
	BlobHostEndpoint string // Upload endpoint of the remote blob host
	BlobHostKey      string // Bearer token for the blob host (empty disables auth)

	// Compression pipeline configuration
	FfmpegPath    string        // Transcoder binary for video compression (default: ffmpeg)
	FfmpegTimeout time.Duration // Per-invocation bound for the transcoder (default: 2m)

	// Upload limits
	MaxUploadBytes int64 // Multipart memory/parse limit for uploads

	// Trash retention; <= 0 disables the automatic purge job
	TrashRetention time.Duration

	// Public download cache
	PublicCacheSize int           // Max cached records (default: 1024)
	PublicCacheTTL  time.Duration // Entry lifetime (default: 1m)
}
