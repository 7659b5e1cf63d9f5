package files

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/jsonutil"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// download handles GET /api/files/{id}/download: resolves the record for
// the requesting owner and streams its bytes as an attachment, wherever
// they live.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.GetByIDAndOwner(ctx, id, owner)
	if err != nil {
		h.notFoundOr(w, err, "failed to resolve file")
		return
	}

	rc, err := h.locator.Open(ctx, f.Storage)
	if err != nil {
		h.streamError(w, f, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(f.Name))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download stream interrupted",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
	}
}

// downloadURL handles GET /api/files/{id}/download-url. Remote files
// resolve to their blob host URL; local files resolve to the
// authenticated download route.
func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.GetByIDAndOwner(ctx, id, owner)
	if err != nil {
		h.notFoundOr(w, err, "failed to resolve file")
		return
	}

	url, ok := h.locator.RedirectURL(f.Storage)
	if !ok {
		url = "/api/files/" + f.ID.Hex() + "/download"
	}

	jsonutil.OK(w, map[string]string{"url": url})
}

// publicDownload handles GET /public/files/{id}: no authentication and no
// owner check. Remote files are answered with a redirect to the blob host;
// local files are streamed inline. Trashed and absent files are both 404.
func (h *Handler) publicDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "file not found")
		return
	}

	f, ok := h.publicCache.Get(id.Hex())
	if !ok {
		f, err = h.fileStore.GetPublic(ctx, id)
		if err != nil {
			h.logger.Error("public lookup failed", zap.Error(err))
			jsonutil.InternalError(w, "lookup failed")
			return
		}
		if f == nil {
			jsonutil.NotFound(w, "file not found")
			return
		}
		h.publicCache.Set(id.Hex(), f)
	}

	if url, ok := h.locator.RedirectURL(f.Storage); ok {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := h.locator.Open(ctx, f.Storage)
	if err != nil {
		h.streamError(w, f, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(f.Name))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("public stream interrupted",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
	}
}

// streamError maps blob resolution failures to responses: missing bytes
// are a 404, upstream fetch failures are a 502.
func (h *Handler) streamError(w http.ResponseWriter, f *models.File, err error) {
	switch {
	case errors.Is(err, blob.ErrNotFound):
		jsonutil.NotFound(w, "file content not found")
	case errors.Is(err, blob.ErrUpstreamFetch):
		h.logger.Error("upstream fetch failed",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
		jsonutil.BadGateway(w, "upstream fetch failed")
	default:
		h.logger.Error("failed to open file content",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "failed to open file content")
	}
}
