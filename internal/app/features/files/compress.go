package files

import (
	"errors"
	"net/http"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/jsonutil"
	"github.com/dalemusser/cloudstore/internal/app/system/transcode"
	"go.uber.org/zap"
)

// compress handles POST /api/files/{id}/compress: re-encodes the source
// file per the request, uploads the result to the blob host, and creates a
// new derived record. The source record is never modified.
func (h *Handler) compress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req transcode.Request
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if req.Type == "" {
		jsonutil.BadRequest(w, "type is required")
		return
	}

	summary, err := h.compressor.Compress(ctx, owner, id, req)
	if err != nil {
		switch {
		case errors.Is(err, file.ErrNotFound):
			jsonutil.NotFound(w, "file not found")
		case errors.Is(err, transcode.ErrUnsupportedType):
			jsonutil.BadRequest(w, "unsupported compression type: "+req.Type)
		default:
			h.logger.Error("compression failed",
				zap.String("file_id", id.Hex()),
				zap.String("type", req.Type),
				zap.Error(err))
			jsonutil.InternalError(w, "compression failed")
		}
		return
	}

	jsonutil.OK(w, summary)
}
