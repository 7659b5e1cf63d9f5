// Package indexes reconciles the MongoDB indexes the catalog queries rely
// on. Each ensure function is idempotent; errors are aggregated so any
// problem is visible and startup can fail fast.
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAll is called at startup (and by the test harness) to create the
// index sets for every collection.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureFolders(ctx, db); err != nil {
		problems = append(problems, "folders: "+err.Error())
	}
	if err := ensureFiles(ctx, db); err != nil {
		problems = append(problems, "files: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureFolders(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("folders")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Owner listing, sorted by name
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_folders_owner_nameci"),
		},
		// Parent-scoped listing
		{
			Keys: bson.D{
				{Key: "parent_id", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_folders_parent_nameci"),
		},
	})
	return err
}

func ensureFiles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("files")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Owner listing split by lifecycle state, sorted by name
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "deleted", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_files_owner_deleted_nameci"),
		},
		// Folder-scoped listing split by lifecycle state
		{
			Keys: bson.D{
				{Key: "folder_id", Value: 1},
				{Key: "deleted", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_files_folder_deleted_nameci"),
		},
		// Trash retention sweep
		{
			Keys: bson.D{
				{Key: "deleted", Value: 1},
				{Key: "updated_at", Value: 1},
			},
			Options: options.Index().SetName("idx_files_deleted_updated"),
		},
	})
	return err
}
