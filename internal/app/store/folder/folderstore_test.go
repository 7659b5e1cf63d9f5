package folder

import (
	"errors"
	"testing"

	"github.com/dalemusser/cloudstore/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		OwnerID: owner,
		Name:    "Documents",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if f.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if f.Name != "Documents" {
		t.Errorf("Name = %v, want Documents", f.Name)
	}
	if f.NameCI != "documents" {
		t.Errorf("NameCI = %v, want documents", f.NameCI)
	}
	if !f.IsRoot() {
		t.Error("folder without parent should be root")
	}
}

func TestStore_Create_Nested(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	parent, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "parent"})

	child, err := store.Create(ctx, CreateInput{
		OwnerID:  owner,
		Name:     "child",
		ParentID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("ParentID = %v, want %v", child.ParentID, parent.ID)
	}
}

func TestStore_Create_MissingParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	missing := primitive.NewObjectID()
	_, err := store.Create(ctx, CreateInput{
		OwnerID:  primitive.NewObjectID(),
		Name:     "orphan",
		ParentID: &missing,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Create() with missing parent error = %v, want ErrNotFound", err)
	}
}

func TestStore_Create_ParentOwnedByOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	parent, _ := store.Create(ctx, CreateInput{
		OwnerID: primitive.NewObjectID(),
		Name:    "theirs",
	})

	_, err := store.Create(ctx, CreateInput{
		OwnerID:  primitive.NewObjectID(),
		Name:     "mine",
		ParentID: &parent.ID,
	})
	if !errors.Is(err, ErrParentNotOwned) {
		t.Errorf("Create() under foreign parent error = %v, want ErrParentNotOwned", err)
	}
}

func TestStore_Create_CyclicParentChain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	a, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "a"})
	b, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "b", ParentID: &a.ID})

	// Corrupt the hierarchy directly: a's parent becomes b.
	_, err := db.Collection("folders").UpdateByID(ctx, a.ID, bson.M{
		"$set": bson.M{"parent_id": b.ID},
	})
	if err != nil {
		t.Fatalf("corrupting hierarchy: %v", err)
	}

	_, err = store.Create(ctx, CreateInput{
		OwnerID:  owner,
		Name:     "c",
		ParentID: &b.ID,
	})
	if !errors.Is(err, ErrCycle) {
		t.Errorf("Create() on cyclic chain error = %v, want ErrCycle", err)
	}
}

func TestStore_ListByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for _, name := range []string{"zeta", "Alpha", "mid"} {
		if _, err := store.Create(ctx, CreateInput{OwnerID: owner, Name: name}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	store.Create(ctx, CreateInput{OwnerID: primitive.NewObjectID(), Name: "other"})

	result, err := store.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("ListByOwner() returned %d folders, want 3", len(result))
	}
	// Sorted by folded name.
	if result[0].Name != "Alpha" || result[2].Name != "zeta" {
		t.Errorf("sort order = %v, %v, %v", result[0].Name, result[1].Name, result[2].Name)
	}
}

func TestStore_ListByParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	parent, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "parent"})
	store.Create(ctx, CreateInput{OwnerID: owner, Name: "child1", ParentID: &parent.ID})
	store.Create(ctx, CreateInput{OwnerID: owner, Name: "child2", ParentID: &parent.ID})
	store.Create(ctx, CreateInput{OwnerID: owner, Name: "sibling"})

	children, err := store.ListByParent(ctx, parent.ID)
	if err != nil {
		t.Fatalf("ListByParent() error = %v", err)
	}
	if len(children) != 2 {
		t.Errorf("ListByParent() returned %d folders, want 2", len(children))
	}

	count, err := store.CountByParent(ctx, parent.ID)
	if err != nil {
		t.Fatalf("CountByParent() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountByParent() = %d, want 2", count)
	}
}

func TestStore_Rename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	f, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "before"})

	renamed, err := store.Rename(ctx, f.ID, owner, "After")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "After" || renamed.NameCI != "after" {
		t.Errorf("renamed = %v / %v", renamed.Name, renamed.NameCI)
	}

	_, err = store.Rename(ctx, f.ID, primitive.NewObjectID(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Rename() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_Detaches(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	parent, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "parent"})
	child, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "child", ParentID: &parent.ID})

	if err := store.Delete(ctx, parent.ID, owner); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := store.GetByID(ctx, parent.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// The child folder survives with its parent reference dangling.
	got, err := store.GetByID(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetByID(child) error = %v", err)
	}
	if got.ParentID == nil || *got.ParentID != parent.ID {
		t.Errorf("child ParentID = %v, want dangling %v", got.ParentID, parent.ID)
	}

	// Deleting again, or deleting someone else's folder, is ErrNotFound.
	if err := store.Delete(ctx, parent.ID, owner); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, child.ID, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_GetPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	root, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "root"})
	mid, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "mid", ParentID: &root.ID})
	leaf, _ := store.Create(ctx, CreateInput{OwnerID: owner, Name: "leaf", ParentID: &mid.ID})

	path, err := store.GetPath(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	if len(path) != 3 {
		t.Fatalf("GetPath() length = %d, want 3", len(path))
	}
	if path[0].ID != root.ID || path[1].ID != mid.ID || path[2].ID != leaf.ID {
		t.Errorf("path order = %v, %v, %v", path[0].Name, path[1].Name, path[2].Name)
	}
}
