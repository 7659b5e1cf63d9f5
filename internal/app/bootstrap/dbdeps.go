// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown
// hook is responsible for closing these connections gracefully.
type DBDeps struct {
	// MongoDB client and database (the file/folder catalog)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage holds locally stored upload bytes
	FileStorage storage.Store

	// BlobHost is the remote blob host client used for compressed
	// derivatives and registered remote files
	BlobHost *blob.HostClient
}
