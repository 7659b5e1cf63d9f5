package files

import (
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
)

// FileResponse is the wire shape for a catalog record.
type FileResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Size         int64      `json:"size"`
	Favourite    bool       `json:"favourite"`
	Deleted      bool       `json:"deleted"`
	FolderID     *string    `json:"folderId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	URL          string     `json:"url,omitempty"`
	IsCompressed bool       `json:"isCompressed"`
}

// toResponse maps a catalog record to its wire shape. Local files carry no
// public URL; remote files expose the blob host URL directly.
func toResponse(f *models.File) FileResponse {
	var folderID *string
	if f.FolderID != nil {
		hex := f.FolderID.Hex()
		folderID = &hex
	}

	var url string
	if f.Storage.IsRemote() {
		url = f.Storage.URL
	}

	return FileResponse{
		ID:           f.ID.Hex(),
		Name:         f.Name,
		Size:         f.Size,
		Favourite:    f.Favourite,
		Deleted:      f.Deleted,
		FolderID:     folderID,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
		URL:          url,
		IsCompressed: f.IsCompressed(),
	}
}

func toResponses(files []models.File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for i := range files {
		out = append(out, toResponse(&files[i]))
	}
	return out
}
