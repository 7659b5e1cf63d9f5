package files

import (
	"net/http"
	"strings"

	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// rename handles POST /api/files/{id}/rename.
func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		NewName string `json:"newName"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	in.NewName = strings.TrimSpace(in.NewName)
	if in.NewName == "" {
		jsonutil.BadRequest(w, "newName is required")
		return
	}

	f, err := h.fileStore.Rename(ctx, id, owner, in.NewName)
	if err != nil {
		h.notFoundOr(w, err, "failed to rename file")
		return
	}

	h.publicCache.Invalidate(id.Hex())
	jsonutil.OK(w, toResponse(f))
}

// toggleFavourite handles POST /api/files/{id}/favorite. The flag flips on
// every call and is preserved across trash transitions.
func (h *Handler) toggleFavourite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.ToggleFavourite(ctx, id, owner)
	if err != nil {
		h.notFoundOr(w, err, "failed to toggle favourite")
		return
	}

	h.publicCache.Invalidate(id.Hex())
	jsonutil.OK(w, toResponse(f))
}

// softDelete handles DELETE /api/files/{id}: moves the file to the trash.
// The stored bytes are untouched.
func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, true)
}

// restore handles POST /api/files/{id}/restore: returns a trashed file to
// its previous place, folder assignment and favourite flag intact.
func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, false)
}

func (h *Handler) setDeleted(w http.ResponseWriter, r *http.Request, deleted bool) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.SetDeleted(ctx, id, owner, deleted)
	if err != nil {
		h.notFoundOr(w, err, "failed to update file state")
		return
	}

	h.publicCache.Invalidate(id.Hex())
	jsonutil.OK(w, toResponse(f))
}

// purge handles DELETE /api/files/{id}/permanent: removes the catalog
// record regardless of trash state, then deletes local bytes best-effort.
// Remote bytes are left to the blob host.
func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.Purge(ctx, id, owner)
	if err != nil {
		h.notFoundOr(w, err, "failed to delete file")
		return
	}

	if f.Storage.IsLocal() {
		h.locator.DeleteLocal(ctx, f.Storage.Path)
	}

	h.publicCache.Invalidate(id.Hex())
	h.logger.Info("file purged",
		zap.String("file_id", id.Hex()),
		zap.String("name", f.Name))
	jsonutil.NoContent(w)
}
