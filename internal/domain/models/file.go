package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompressedMarker is the name fragment that marks a file as the output of
// the compression pipeline. Display-only derivation hint, not a structural
// field.
const CompressedMarker = "_compressed"

// File represents one stored object in the catalog.
//
// Lifecycle: Active (Deleted=false) and Trashed (Deleted=true) are
// reversible via restore; purging removes the record entirely and is
// terminal.
type File struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID   primitive.ObjectID  `bson:"owner_id"`
	FolderID  *primitive.ObjectID `bson:"folder_id,omitempty"` // nil = root level
	Name      string              `bson:"name"`                // Original filename
	NameCI    string              `bson:"name_ci"`             // Case-insensitive for sorting/search
	Storage   StorageRef          `bson:"storage"`             // Where the bytes live
	Size      int64               `bson:"size"`                // Size in bytes
	Favourite bool                `bson:"favourite"`
	Deleted   bool                `bson:"deleted"` // Soft-delete flag (trashed)
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

// IsInRoot returns true if the file is at the root level (not in any folder).
func (f *File) IsInRoot() bool {
	return f.FolderID == nil
}

// IsCompressed reports whether the file's name carries the compression
// output marker.
func (f *File) IsCompressed() bool {
	return strings.Contains(f.Name, CompressedMarker)
}
