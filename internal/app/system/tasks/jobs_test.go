package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/app/system/filecache"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/dalemusser/cloudstore/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestTrashCleanupJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	files := file.New(db)

	local, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("initializing local storage: %v", err)
	}
	locator := blob.NewLocator(local, blob.NewHostClient("", "", zap.NewNop()), zap.NewNop())

	ctx := context.Background()
	owner := primitive.NewObjectID()

	// An expired trashed file with local bytes.
	path, err := locator.SaveLocal(ctx, strings.NewReader("stale"), "stale.txt", "text/plain")
	if err != nil {
		t.Fatalf("SaveLocal() error = %v", err)
	}
	expired, _ := files.Create(ctx, file.CreateInput{
		OwnerID: owner, Name: "stale.txt",
		Storage: models.LocalRef(path), Size: 5,
	})
	files.SetDeleted(ctx, expired.ID, owner, true)

	// Backdate the trash timestamp past the retention window.
	_, err = db.Collection("files").UpdateByID(ctx, expired.ID, bson.M{
		"$set": bson.M{"updated_at": time.Now().UTC().Add(-48 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("backdating record: %v", err)
	}

	// A freshly trashed file stays.
	fresh, _ := files.Create(ctx, file.CreateInput{
		OwnerID: owner, Name: "fresh.txt",
		Storage: models.LocalRef("p_fresh"), Size: 5,
	})
	files.SetDeleted(ctx, fresh.ID, owner, true)

	// An active file stays regardless of age.
	active, _ := files.Create(ctx, file.CreateInput{
		OwnerID: owner, Name: "active.txt",
		Storage: models.LocalRef("p_active"), Size: 5,
	})

	// Both trashed files sit in the public cache when the sweep runs.
	cache := filecache.New(16, time.Hour)
	cache.Set(expired.ID.Hex(), expired)
	cache.Set(fresh.ID.Hex(), fresh)

	job := TrashCleanupJob(files, locator, cache, 24*time.Hour, zap.NewNop())
	if job.Name != "trash-cleanup" {
		t.Errorf("job.Name = %q", job.Name)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := files.GetByIDAndOwner(ctx, expired.ID, owner); !errors.Is(err, file.ErrNotFound) {
		t.Errorf("expired file lookup error = %v, want ErrNotFound", err)
	}
	if _, err := locator.Open(ctx, models.LocalRef(path)); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("expired file bytes still present, Open error = %v", err)
	}
	if _, err := files.GetByIDAndOwner(ctx, fresh.ID, owner); err != nil {
		t.Errorf("fresh trashed file should survive: %v", err)
	}
	if _, err := files.GetByIDAndOwner(ctx, active.ID, owner); err != nil {
		t.Errorf("active file should survive: %v", err)
	}

	if _, ok := cache.Get(expired.ID.Hex()); ok {
		t.Error("purged file still cached on the public path")
	}
	if _, ok := cache.Get(fresh.ID.Hex()); !ok {
		t.Error("surviving file dropped from the public cache")
	}
}

func TestRunner_StartStop(t *testing.T) {
	r := New(zap.NewNop())

	ran := make(chan struct{}, 1)
	r.Register(Job{
		Name:     "noop",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	r.Start()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on startup")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
