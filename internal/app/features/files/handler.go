// Package files provides the file JSON API: listing, search, upload,
// remote registration, download, lifecycle transitions, and compression.
package files

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/store/folder"
	"github.com/dalemusser/cloudstore/internal/app/system/auth"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/filecache"
	"github.com/dalemusser/cloudstore/internal/app/system/jsonutil"
	"github.com/dalemusser/cloudstore/internal/app/system/transcode"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides file API handlers.
type Handler struct {
	fileStore   *file.Store
	folderStore *folder.Store
	locator     *blob.Locator
	compressor  *transcode.Service
	publicCache *filecache.Cache
	maxUpload   int64
	logger      *zap.Logger
}

// NewHandler creates a new files Handler.
func NewHandler(
	db *mongo.Database,
	locator *blob.Locator,
	compressor *transcode.Service,
	publicCache *filecache.Cache,
	maxUpload int64,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		fileStore:   file.New(db),
		folderStore: folder.New(db),
		locator:     locator,
		compressor:  compressor,
		publicCache: publicCache,
		maxUpload:   maxUpload,
		logger:      logger,
	}
}

// Routes returns a chi.Router with the authenticated file routes mounted.
func Routes(h *Handler, ownerMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(ownerMW)

	r.Get("/", h.list)
	r.Get("/deleted", h.listDeleted)
	r.Get("/search", h.search)
	r.Post("/upload", h.upload)
	r.Post("/register", h.registerRemote)

	r.Get("/{id}/download", h.download)
	r.Get("/{id}/download-url", h.downloadURL)
	r.Post("/{id}/compress", h.compress)
	r.Post("/{id}/rename", h.rename)
	r.Post("/{id}/favorite", h.toggleFavourite)
	r.Post("/{id}/restore", h.restore)
	r.Delete("/{id}", h.softDelete)
	r.Delete("/{id}/permanent", h.purge)

	return r
}

// PublicRoutes returns the unauthenticated download routes.
func PublicRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}", h.publicDownload)
	return r
}

// pathID parses the {id} URL parameter. Writes a 404 and returns false on a
// malformed id, matching the absent-record behavior.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "file not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// queryFolderID parses an optional folder_id query parameter.
func queryFolderID(r *http.Request) (*primitive.ObjectID, error) {
	raw := r.URL.Query().Get("folder_id")
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func listOptions(r *http.Request) file.ListOptions {
	opts := file.ListOptions{SortBy: r.URL.Query().Get("sort")}
	if r.URL.Query().Get("order") == "desc" {
		opts.SortOrder = -1
	}
	return opts
}

// listState serves both the active and deleted listings. When folder_id is
// present the listing is folder-scoped (not owner-filtered); otherwise it
// is scoped to the requesting owner.
func (h *Handler) listState(w http.ResponseWriter, r *http.Request, trashed bool) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	folderID, err := queryFolderID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid folder_id")
		return
	}

	var result []models.File
	if folderID != nil {
		result, err = h.fileStore.ListByFolder(ctx, folderID, trashed, listOptions(r))
	} else {
		result, err = h.fileStore.ListByOwner(ctx, owner, trashed, listOptions(r))
	}
	if err != nil {
		h.logger.Error("failed to list files", zap.Error(err))
		jsonutil.InternalError(w, "failed to list files")
		return
	}

	jsonutil.OK(w, toResponses(result))
}

// list handles GET /api/files.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.listState(w, r, false)
}

// listDeleted handles GET /api/files/deleted.
func (h *Handler) listDeleted(w http.ResponseWriter, r *http.Request) {
	h.listState(w, r, true)
}

// search handles GET /api/files/search?query=.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	query := r.URL.Query().Get("query")
	if query == "" {
		jsonutil.BadRequest(w, "missing query parameter")
		return
	}

	result, err := h.fileStore.Search(ctx, owner, query)
	if err != nil {
		h.logger.Error("file search failed", zap.Error(err))
		jsonutil.InternalError(w, "search failed")
		return
	}

	jsonutil.OK(w, toResponses(result))
}

// upload handles POST /api/files/upload: one or more multipart payloads
// under the "files" field, with an optional folder_id form value.
//
// Items are processed sequentially; the first failure aborts the batch and
// is returned immediately. Records already created for earlier items are
// kept (no rollback).
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		jsonutil.BadRequest(w, "upload too large or malformed")
		return
	}

	var folderID *primitive.ObjectID
	if raw := r.FormValue("folder_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.BadRequest(w, "invalid folder_id")
			return
		}
		folderID = h.resolveFolder(ctx, id)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonutil.BadRequest(w, "no files in request")
		return
	}

	responses := make([]FileResponse, 0, len(headers))
	for _, header := range headers {
		created, err := h.uploadOne(r, owner, folderID, header)
		if err != nil {
			h.logger.Error("upload failed",
				zap.String("name", header.Filename),
				zap.Error(err))
			jsonutil.InternalError(w, "failed to upload "+header.Filename)
			return
		}
		responses = append(responses, toResponse(created))
	}

	jsonutil.OK(w, responses)
}

// resolveFolder looks up a destination folder by id. The lookup is not
// ownership-scoped; an absent folder falls back to the root.
func (h *Handler) resolveFolder(ctx context.Context, id primitive.ObjectID) *primitive.ObjectID {
	if _, err := h.folderStore.GetByID(ctx, id); err != nil {
		return nil
	}
	return &id
}

func (h *Handler) uploadOne(r *http.Request, owner primitive.ObjectID, folderID *primitive.ObjectID, header *multipart.FileHeader) (*models.File, error) {
	ctx := r.Context()

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		mt, err := mimetype.DetectReader(f)
		if err == nil {
			contentType = mt.String()
		} else {
			contentType = "application/octet-stream"
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	path, err := h.locator.SaveLocal(ctx, f, header.Filename, contentType)
	if err != nil {
		return nil, err
	}

	return h.fileStore.Create(ctx, file.CreateInput{
		OwnerID:  owner,
		FolderID: folderID,
		Name:     header.Filename,
		Storage:  models.LocalRef(path),
		Size:     header.Size,
	})
}

// registerRemote handles POST /api/files/register: creates a catalog entry
// for bytes that already live on the remote blob host, skipping the store
// step entirely. The folder is resolved by id without an ownership check.
func (h *Handler) registerRemote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.CurrentOwner(r)

	var in struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Size     int64  `json:"size"`
		Type     string `json:"type"`
		FolderID string `json:"folderId"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Name == "" || in.URL == "" {
		jsonutil.BadRequest(w, "name and url are required")
		return
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		jsonutil.BadRequest(w, "url must be http(s)")
		return
	}
	if in.Size < 0 {
		jsonutil.BadRequest(w, "size must be non-negative")
		return
	}

	var folderID *primitive.ObjectID
	if in.FolderID != "" {
		id, err := primitive.ObjectIDFromHex(in.FolderID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid folderId")
			return
		}
		folderID = h.resolveFolder(ctx, id)
	}

	created, err := h.fileStore.Create(ctx, file.CreateInput{
		OwnerID:  owner,
		FolderID: folderID,
		Name:     in.Name,
		Storage:  models.RemoteRef(in.URL),
		Size:     in.Size,
	})
	if err != nil {
		h.logger.Error("failed to register remote file", zap.Error(err))
		jsonutil.InternalError(w, "failed to register file")
		return
	}

	jsonutil.Created(w, toResponse(created))
}

// notFoundOr maps store errors to API responses.
func (h *Handler) notFoundOr(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, file.ErrNotFound) {
		jsonutil.NotFound(w, "file not found")
		return
	}
	h.logger.Error(what, zap.Error(err))
	jsonutil.InternalError(w, what)
}
