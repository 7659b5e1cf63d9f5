// Package file provides the file catalog: the authoritative record set of
// file metadata and lifecycle state, keyed by id and scoped by owner.
package file

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no record matches the given id, or when the
// record exists but belongs to a different owner. The two cases are
// deliberately indistinguishable: the (id, owner) lookup is the catalog's
// access-control mechanism.
var ErrNotFound = errors.New("file not found")

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("files"),
	}
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	OwnerID  primitive.ObjectID
	FolderID *primitive.ObjectID
	Name     string
	Storage  models.StorageRef
	Size     int64
}

// Create creates a new file record. New records are always active and
// unfavourited.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now().UTC()
	f := models.File{
		ID:        primitive.NewObjectID(),
		OwnerID:   input.OwnerID,
		FolderID:  input.FolderID,
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		Storage:   input.Storage,
		Size:      input.Size,
		Favourite: false,
		Deleted:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return nil, err
	}

	return &f, nil
}

// GetByIDAndOwner retrieves a file by the compound (id, owner) key. This is
// the only single-record lookup used by per-user mutating operations; a
// record owned by someone else is reported as ErrNotFound, never as a
// permission error.
func (s *Store) GetByIDAndOwner(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	var f models.File
	err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetPublic retrieves a file by id without owner scoping, filtering out
// trashed records. Used by the unauthenticated download path. Absence is
// reported as (nil, nil), not as an error.
func (s *Store) GetPublic(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var f models.File
	err := s.c.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// ListOptions contains options for listing files.
type ListOptions struct {
	SortBy    string // "name", "created_at", "size"
	SortOrder int    // 1 = asc, -1 = desc
	Search    string // Filter by filename (case-folded substring)
}

func sortSpec(opts ListOptions) *options.FindOptions {
	sortField := "name_ci"
	switch opts.SortBy {
	case "created_at", "date":
		sortField = "created_at"
	case "size":
		sortField = "size"
	}

	sortOrder := 1
	if opts.SortOrder != 0 {
		sortOrder = opts.SortOrder
	}

	return options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder}})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.File, error) {
	if opts.Search != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(opts.Search))}
	}

	cursor, err := s.c.Find(ctx, filter, sortSpec(opts))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListByOwner returns all of an owner's files in the given lifecycle state
// (trashed=false for active, true for the trash listing).
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, trashed bool, opts ListOptions) ([]models.File, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID, "deleted": trashed}, opts)
}

// ListByFolder returns all files within a folder in the given lifecycle
// state. Pass nil for folderID to list root-level files. The folder-scoped
// query family is intentionally not owner-filtered; registration and public
// paths need folder-wide visibility.
func (s *Store) ListByFolder(ctx context.Context, folderID *primitive.ObjectID, trashed bool, opts ListOptions) ([]models.File, error) {
	return s.find(ctx, bson.M{"folder_id": folderID, "deleted": trashed}, opts)
}

// Search returns an owner's active files whose name contains the query,
// case-insensitively.
func (s *Store) Search(ctx context.Context, ownerID primitive.ObjectID, query string) ([]models.File, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID, "deleted": false}, ListOptions{Search: query})
}

// CountByFolderID returns the number of active files in a folder.
func (s *Store) CountByFolderID(ctx context.Context, folderID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"folder_id": folderID, "deleted": false})
}

// mutate applies a $set update to the record matching (id, owner) and
// returns the updated document.
func (s *Store) mutate(ctx context.Context, id, ownerID primitive.ObjectID, set bson.M) (*models.File, error) {
	set["updated_at"] = time.Now().UTC()

	after := options.After
	var f models.File
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Rename changes a file's name without touching its lifecycle state.
func (s *Store) Rename(ctx context.Context, id, ownerID primitive.ObjectID, newName string) (*models.File, error) {
	return s.mutate(ctx, id, ownerID, bson.M{
		"name":    newName,
		"name_ci": text.Fold(newName),
	})
}

// ToggleFavourite flips a file's favourite flag.
func (s *Store) ToggleFavourite(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	f, err := s.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, ownerID, bson.M{"favourite": !f.Favourite})
}

// SetDeleted moves a file between the active and trashed states. Re-applying
// the current state is a no-op apart from the updated_at bump.
func (s *Store) SetDeleted(ctx context.Context, id, ownerID primitive.ObjectID, deleted bool) (*models.File, error) {
	return s.mutate(ctx, id, ownerID, bson.M{"deleted": deleted})
}

// Purge permanently removes a file record regardless of its deleted flag.
// Purging an active file directly, bypassing the trash, is allowed.
func (s *Store) Purge(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	var f models.File
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListTrashedBefore returns files that have been in the trash since before
// the cutoff. Used by the trash retention job.
func (s *Store) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	cursor, err := s.c.Find(ctx, bson.M{
		"deleted":    true,
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}
