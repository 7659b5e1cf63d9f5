// Package transcode implements the compression pipeline: type-dispatched
// re-encoding of a stored file into a new derived file that is uploaded to
// the remote blob host and inserted into the catalog.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedType is returned for compression types other than
	// image, video, and archive.
	ErrUnsupportedType = errors.New("unsupported compression type")

	// ErrFailed wraps any pipeline-stage failure (fetch, re-encode,
	// transcoder exit, upload, catalog insert) with the originating
	// message.
	ErrFailed = errors.New("compression failed")
)

// Defaults applied when the request leaves a knob unset.
const (
	DefaultQuality = 0.7  // image output quality, conceptually 0.3-0.9
	DefaultBitrate = 1000 // video target bitrate in kbps
)

// Request describes one compression invocation.
type Request struct {
	Type    string   `json:"type"`              // "image", "video", or "archive" (case-insensitive)
	Quality *float64 `json:"quality,omitempty"` // image only
	Bitrate *int     `json:"bitrate,omitempty"` // video only, kbps
	Format  string   `json:"format,omitempty"`  // target container/extension
}

// Summary describes the derived file produced by a compression run.
type Summary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	OriginalSize     int64   `json:"originalSize"`
	CompressedSize   int64   `json:"compressedSize"`
	CompressionRatio float64 `json:"compressionRatio"`
	Format           string  `json:"format"`
}

// Service runs the compression pipeline.
type Service struct {
	files         *file.Store
	locator       *blob.Locator
	ffmpegPath    string
	ffmpegTimeout time.Duration
	logger        *zap.Logger
}

// NewService creates a compression service. ffmpegPath is the transcoder
// binary to invoke for video; ffmpegTimeout bounds each invocation.
func NewService(files *file.Store, locator *blob.Locator, ffmpegPath string, ffmpegTimeout time.Duration, logger *zap.Logger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Service{
		files:         files,
		locator:       locator,
		ffmpegPath:    ffmpegPath,
		ffmpegTimeout: ffmpegTimeout,
		logger:        logger,
	}
}

// Compress resolves the original file through the owner-scoped lookup,
// produces a re-encoded derivative, uploads it to the remote blob host, and
// inserts the derived record into the catalog.
//
// The derived record lands in the original's folder under the original's
// owner. If the catalog insert fails after the upload succeeded, the blob
// is orphaned on the host; the host interface has no delete, so this is
// logged and surfaced as a pipeline failure.
func (s *Service) Compress(ctx context.Context, ownerID, fileID primitive.ObjectID, req Request) (*Summary, error) {
	original, err := s.files.GetByIDAndOwner(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	rc, err := s.locator.Open(ctx, original.Storage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: reading original: %v", ErrFailed, err)
	}

	ext := extension(original.Name)
	format := strings.ToLower(req.Format)
	if format == "" {
		format = ext
	}

	var compressed []byte
	switch strings.ToLower(req.Type) {
	case "image":
		quality := DefaultQuality
		if req.Quality != nil {
			quality = *req.Quality
		}
		compressed, err = reencodeImage(data, format, quality)
	case "video":
		bitrate := DefaultBitrate
		if req.Bitrate != nil {
			bitrate = *req.Bitrate
		}
		compressed, err = s.transcodeVideo(ctx, data, ext, format, bitrate)
	case "archive":
		format = "zip"
		compressed, err = zipWrap(original.Name, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	derivedName := DerivedName(original.Name, format)

	url, err := s.locator.Upload(ctx, compressed, derivedName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	derived, err := s.files.Create(ctx, file.CreateInput{
		OwnerID:  original.OwnerID,
		FolderID: original.FolderID,
		Name:     derivedName,
		Storage:  models.RemoteRef(url),
		Size:     int64(len(compressed)),
	})
	if err != nil {
		// The upload already succeeded; the blob host has no delete, so
		// the remote object is orphaned.
		s.logger.Warn("derived upload orphaned: catalog insert failed",
			zap.String("url", url),
			zap.String("name", derivedName),
			zap.Error(err))
		return nil, fmt.Errorf("%w: inserting derived record: %v", ErrFailed, err)
	}

	// A zero-byte original (possible via registration) has no meaningful
	// ratio; report 0 instead of dividing by zero.
	var ratio float64
	if original.Size > 0 {
		ratio = float64(original.Size-int64(len(compressed))) / float64(original.Size) * 100
	}

	s.logger.Info("compressed file",
		zap.String("file_id", original.ID.Hex()),
		zap.String("derived_id", derived.ID.Hex()),
		zap.String("type", strings.ToLower(req.Type)),
		zap.String("format", format),
		zap.Int64("original_size", original.Size),
		zap.Int("compressed_size", len(compressed)))

	return &Summary{
		ID:               derived.ID.Hex(),
		Name:             derived.Name,
		URL:              url,
		OriginalSize:     original.Size,
		CompressedSize:   int64(len(compressed)),
		CompressionRatio: ratio,
		Format:           format,
	}, nil
}

// DerivedName builds the derived file's name: the original name with its
// extension stripped and "_compressed.<format>" appended. Names without an
// extension are suffixed directly.
func DerivedName(original, format string) string {
	base := original
	if ext := filepath.Ext(original); ext != "" {
		base = strings.TrimSuffix(original, ext)
	}
	return base + "_compressed." + format
}

// extension returns the lowercased extension of name without the dot, or
// "" if there is none.
func extension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
