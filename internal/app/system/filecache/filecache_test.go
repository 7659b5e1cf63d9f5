package filecache

import (
	"testing"
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCache_SetGet(t *testing.T) {
	c := New(8, time.Minute)

	id := primitive.NewObjectID()
	f := &models.File{ID: id, Name: "cached.txt"}

	if _, ok := c.Get(id.Hex()); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set(id.Hex(), f)

	got, ok := c.Get(id.Hex())
	if !ok {
		t.Fatal("Get() after Set() missed")
	}
	if got.Name != "cached.txt" {
		t.Errorf("cached Name = %v", got.Name)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New(8, time.Minute)

	id := primitive.NewObjectID()
	c.Set(id.Hex(), &models.File{ID: id})
	c.Invalidate(id.Hex())

	if _, ok := c.Get(id.Hex()); ok {
		t.Error("Get() after Invalidate() should miss")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(8, 20*time.Millisecond)

	id := primitive.NewObjectID()
	c.Set(id.Hex(), &models.File{ID: id})

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get(id.Hex()); ok {
		t.Error("entry should expire after TTL")
	}
}

func TestCache_Eviction(t *testing.T) {
	c := New(2, time.Minute)

	ids := []primitive.ObjectID{
		primitive.NewObjectID(),
		primitive.NewObjectID(),
		primitive.NewObjectID(),
	}
	for _, id := range ids {
		c.Set(id.Hex(), &models.File{ID: id})
	}

	// Oldest entry is evicted once the bound is exceeded.
	if _, ok := c.Get(ids[0].Hex()); ok {
		t.Error("oldest entry should be evicted")
	}
	if _, ok := c.Get(ids[2].Hex()); !ok {
		t.Error("newest entry should survive")
	}
}
