// Package folder provides storage for the per-owner folder hierarchy.
package folder

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no folder matches the given id (or the
	// folder belongs to a different owner, for owner-scoped operations).
	ErrNotFound = errors.New("folder not found")

	// ErrParentNotOwned is returned when a folder's parent exists but
	// belongs to a different owner.
	ErrParentNotOwned = errors.New("parent folder belongs to a different owner")

	// ErrCycle is returned when an operation would make a folder its own
	// ancestor, or when the ancestor chain does not terminate.
	ErrCycle = errors.New("folder hierarchy cycle")
)

// maxDepth bounds ancestor-chain walks so a corrupt hierarchy cannot spin
// the store forever.
const maxDepth = 64

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("folders"),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	OwnerID  primitive.ObjectID
	Name     string
	ParentID *primitive.ObjectID
}

// Create creates a new folder. If a parent is given it must exist, belong
// to the same owner, and sit on a terminating ancestor chain.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	if input.ParentID != nil {
		parent, err := s.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.OwnerID != input.OwnerID {
			return nil, ErrParentNotOwned
		}
		if _, err := s.GetAncestors(ctx, parent.ID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	f := models.Folder{
		ID:        primitive.NewObjectID(),
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		ParentID:  input.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return nil, err
	}

	return &f, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByOwner returns all folders owned by the given owner, sorted by name.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	return s.list(ctx, bson.M{"owner_id": ownerID})
}

// ListByParent returns folders whose parent equals the given id. The
// parent-scoped listing is not owner-filtered; callers that need isolation
// list by owner instead.
func (s *Store) ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, error) {
	return s.list(ctx, bson.M{"parent_id": parentID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Folder, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CountByParent returns the number of folders under the given parent.
func (s *Store) CountByParent(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parent_id": parentID})
}

// Rename changes a folder's name. The lookup is keyed by (id, owner).
func (s *Store) Rename(ctx context.Context, id, ownerID primitive.ObjectID, newName string) (*models.Folder, error) {
	after := options.After
	var f models.Folder
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{
			"name":       newName,
			"name_ci":    text.Fold(newName),
			"updated_at": time.Now().UTC(),
		}},
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

// Delete removes the folder record only. Child folders and files that
// reference it are detached, not deleted; their folder references dangle
// until they are moved or removed.
func (s *Store) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAncestors returns the chain of ancestors from the root down to (but
// not including) the given folder. Returns ErrCycle if the chain revisits
// a folder or exceeds the depth bound.
func (s *Store) GetAncestors(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	seen := map[primitive.ObjectID]bool{id: true}

	var chain []models.Folder
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for f.ParentID != nil {
		if len(chain) >= maxDepth {
			return nil, ErrCycle
		}
		if seen[*f.ParentID] {
			return nil, ErrCycle
		}
		seen[*f.ParentID] = true

		f, err = s.GetByID(ctx, *f.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append([]models.Folder{*f}, chain...)
	}

	return chain, nil
}

// GetPath returns the ancestor chain including the folder itself, root
// first.
func (s *Store) GetPath(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.GetAncestors(ctx, id)
	if err != nil {
		return nil, err
	}

	return append(ancestors, *f), nil
}
