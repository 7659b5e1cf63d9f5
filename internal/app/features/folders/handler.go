// Package folders provides the folder JSON API: hierarchy listing,
// creation, rename, and removal.
package folders

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/store/folder"
	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/jsonutil"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// FolderResponse is the wire shape for a folder.
type FolderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(f *models.Folder) FolderResponse {
	var parentID *string
	if f.ParentID != nil {
		hex := f.ParentID.Hex()
		parentID = &hex
	}
	return FolderResponse{
		ID:        f.ID.Hex(),
		Name:      f.Name,
		ParentID:  parentID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func toResponses(folders []models.Folder) []FolderResponse {
	out := make([]FolderResponse, 0, len(folders))
	for i := range folders {
		out = append(out, toResponse(&folders[i]))
	}
	return out
}

// FolderDetail is FolderResponse plus content counts, served by the
// single-folder endpoint.
type FolderDetail struct {
	FolderResponse
	FileCount      int64 `json:"fileCount"`
	SubfolderCount int64 `json:"subfolderCount"`
}

// Handler provides folder API handlers.
type Handler struct {
	store     *folder.Store
	fileStore *file.Store
	logger    *zap.Logger
}

// NewHandler creates a new folders Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		store:     folder.New(db),
		fileStore: file.New(db),
		logger:    logger,
	}
}

// Routes returns a chi.Router with the folder routes mounted.
func Routes(h *Handler, ownerMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(ownerMW)

	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/path", h.path)
	r.Post("/", h.create)
	r.Post("/{id}/rename", h.rename)
	r.Delete("/{id}", h.remove)

	return r
}

func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "folder not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// list handles GET /api/folders. With parent_id the listing is scoped to
// that parent's children (not owner-filtered); without it, every folder of
// the requesting owner is returned.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	var (
		result []models.Folder
		err    error
	)
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID, perr := primitive.ObjectIDFromHex(raw)
		if perr != nil {
			jsonutil.BadRequest(w, "invalid parent_id")
			return
		}
		result, err = h.store.ListByParent(ctx, parentID)
	} else {
		result, err = h.store.ListByOwner(ctx, owner)
	}
	if err != nil {
		h.logger.Error("failed to list folders", zap.Error(err))
		jsonutil.InternalError(w, "failed to list folders")
		return
	}

	jsonutil.OK(w, toResponses(result))
}

// get handles GET /api/folders/{id}: the folder plus counts of the active
// files and subfolders directly inside it.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.store.GetByID(ctx, id)
	if err != nil || f.OwnerID != owner {
		if err != nil && !errors.Is(err, folder.ErrNotFound) {
			h.logger.Error("failed to load folder", zap.Error(err))
			jsonutil.InternalError(w, "failed to load folder")
			return
		}
		jsonutil.NotFound(w, "folder not found")
		return
	}

	fileCount, err := h.fileStore.CountByFolderID(ctx, id)
	if err != nil {
		h.logger.Error("failed to count folder files", zap.Error(err))
		jsonutil.InternalError(w, "failed to load folder")
		return
	}
	subCount, err := h.store.CountByParent(ctx, id)
	if err != nil {
		h.logger.Error("failed to count subfolders", zap.Error(err))
		jsonutil.InternalError(w, "failed to load folder")
		return
	}

	jsonutil.OK(w, FolderDetail{
		FolderResponse: toResponse(f),
		FileCount:      fileCount,
		SubfolderCount: subCount,
	})
}

// path handles GET /api/folders/{id}/path: the folder's ancestor chain
// from the root down to the folder itself.
func (h *Handler) path(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	chain, err := h.store.GetPath(ctx, id)
	if err != nil {
		if errors.Is(err, folder.ErrNotFound) {
			jsonutil.NotFound(w, "folder not found")
			return
		}
		h.logger.Error("failed to resolve folder path", zap.Error(err))
		jsonutil.InternalError(w, "failed to resolve folder path")
		return
	}

	jsonutil.OK(w, toResponses(chain))
}

// create handles POST /api/folders. A parent, when given, must exist and
// belong to the requesting owner.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	var in struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		jsonutil.BadRequest(w, "name is required")
		return
	}

	var parentID *primitive.ObjectID
	if in.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(in.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid parentId")
			return
		}
		parentID = &id
	}

	created, err := h.store.Create(ctx, folder.CreateInput{
		OwnerID:  owner,
		Name:     in.Name,
		ParentID: parentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, folder.ErrNotFound), errors.Is(err, folder.ErrParentNotOwned):
			jsonutil.BadRequest(w, "parent folder not found")
		case errors.Is(err, folder.ErrCycle):
			jsonutil.BadRequest(w, "folder hierarchy cycle")
		default:
			h.logger.Error("failed to create folder", zap.Error(err))
			jsonutil.InternalError(w, "failed to create folder")
		}
		return
	}

	jsonutil.Created(w, toResponse(created))
}

// rename handles POST /api/folders/{id}/rename.
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

	renamed, err := h.store.Rename(ctx, id, owner, in.NewName)
	if err != nil {
		if errors.Is(err, folder.ErrNotFound) {
			jsonutil.NotFound(w, "folder not found")
			return
		}
		h.logger.Error("failed to rename folder", zap.Error(err))
		jsonutil.InternalError(w, "failed to rename folder")
		return
	}

	jsonutil.OK(w, toResponse(renamed))
}

// remove handles DELETE /api/folders/{id}: deletes the folder record only.
// Contained files keep their folder assignment and become unreachable
// through folder navigation until reassigned or listed directly.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, id, owner); err != nil {
		if errors.Is(err, folder.ErrNotFound) {
			jsonutil.NotFound(w, "folder not found")
			return
		}
		h.logger.Error("failed to delete folder", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete folder")
		return
	}

	jsonutil.NoContent(w)
}
