package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/cloudstore/internal/app/store/file"
	"github.com/dalemusser/cloudstore/internal/app/system/blob"
	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/dalemusser/cloudstore/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// testPipeline wires a Service over a real catalog, a temp-dir local store,
// and a stub blob host that serves every uploaded blob back out.
func testPipeline(t *testing.T) (*Service, *file.Store, *blob.Locator, string) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	files := file.New(db)

	local, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("initializing local storage: %v", err)
	}

	var mux http.ServeMux
	blobs := map[string][]byte{}
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		var buf bytes.Buffer
		buf.ReadFrom(f)
		name := r.FormValue("name")
		blobs[name] = buf.Bytes()
		w.Write([]byte(`{"url":"` + serverURL(r) + `/blobs/` + name + `"}`))
	})
	mux.HandleFunc("/blobs/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/blobs/"):]
		data, ok := blobs[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
	srv := httptest.NewServer(&mux)
	t.Cleanup(srv.Close)

	host := blob.NewHostClient(srv.URL+"/upload", "", zap.NewNop())
	locator := blob.NewLocator(local, host, zap.NewNop())
	svc := NewService(files, locator, "ffmpeg", 0, zap.NewNop())

	return svc, files, locator, srv.URL
}

func serverURL(r *http.Request) string {
	return "http://" + r.Host
}

func storeOriginal(t *testing.T, files *file.Store, locator *blob.Locator, owner primitive.ObjectID, name string, data []byte) *models.File {
	t.Helper()
	ctx := context.Background()

	path, err := locator.SaveLocal(ctx, bytes.NewReader(data), name, "application/octet-stream")
	if err != nil {
		t.Fatalf("SaveLocal() error = %v", err)
	}
	f, err := files.Create(ctx, file.CreateInput{
		OwnerID: owner,
		Name:    name,
		Storage: models.LocalRef(path),
		Size:    int64(len(data)),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return f
}

func TestService_Compress_Image(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	src := testImagePNG(t)
	original := storeOriginal(t, files, locator, owner, "pic.png", src)

	summary, err := svc.Compress(ctx, owner, original.ID, Request{Type: "image", Format: "jpg"})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	if summary.Name != "pic_compressed.jpg" {
		t.Errorf("summary.Name = %q, want pic_compressed.jpg", summary.Name)
	}
	if summary.Format != "jpg" {
		t.Errorf("summary.Format = %q, want jpg", summary.Format)
	}
	if summary.OriginalSize != int64(len(src)) {
		t.Errorf("OriginalSize = %d, want %d", summary.OriginalSize, len(src))
	}
	wantRatio := float64(summary.OriginalSize-summary.CompressedSize) / float64(summary.OriginalSize) * 100
	if summary.CompressionRatio != wantRatio {
		t.Errorf("CompressionRatio = %v, want %v", summary.CompressionRatio, wantRatio)
	}

	// The derived file is a separate catalog record on the remote host;
	// the original is untouched.
	derivedID, err := primitive.ObjectIDFromHex(summary.ID)
	if err != nil {
		t.Fatalf("summary.ID not an object id: %v", err)
	}
	derived, err := files.GetByIDAndOwner(ctx, derivedID, owner)
	if err != nil {
		t.Fatalf("derived record lookup error = %v", err)
	}
	if !derived.Storage.IsRemote() || derived.Storage.URL != summary.URL {
		t.Errorf("derived Storage = %+v, want remote %q", derived.Storage, summary.URL)
	}
	if !derived.IsCompressed() {
		t.Error("derived record should carry the compressed name marker")
	}

	kept, err := files.GetByIDAndOwner(ctx, original.ID, owner)
	if err != nil {
		t.Fatalf("original lookup error = %v", err)
	}
	if !kept.Storage.IsLocal() || kept.Name != "pic.png" {
		t.Errorf("original mutated: %+v", kept)
	}
}

func TestService_Compress_ArchiveForcesZip(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	original := storeOriginal(t, files, locator, owner, "notes.txt", []byte("some text to wrap"))

	summary, err := svc.Compress(ctx, owner, original.ID, Request{Type: "archive", Format: "tar"})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if summary.Format != "zip" {
		t.Errorf("archive Format = %q, want zip", summary.Format)
	}
	if summary.Name != "notes_compressed.zip" {
		t.Errorf("archive Name = %q, want notes_compressed.zip", summary.Name)
	}
}

func TestService_Compress_ZeroSizeOriginal(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	original := storeOriginal(t, files, locator, owner, "empty.txt", []byte{})

	// Wrapping an empty file still produces a non-empty zip; the ratio
	// must stay finite so the summary can be encoded.
	summary, err := svc.Compress(ctx, owner, original.ID, Request{Type: "archive"})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if summary.OriginalSize != 0 {
		t.Errorf("OriginalSize = %d, want 0", summary.OriginalSize)
	}
	if summary.CompressedSize <= 0 {
		t.Errorf("CompressedSize = %d, want > 0", summary.CompressedSize)
	}
	if summary.CompressionRatio != 0 {
		t.Errorf("CompressionRatio = %v, want 0", summary.CompressionRatio)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(summary); err != nil {
		t.Errorf("summary does not encode: %v", err)
	}
}

func TestService_Compress_UnsupportedType(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	original := storeOriginal(t, files, locator, owner, "doc.pdf", []byte("%PDF-1.4"))

	_, err := svc.Compress(ctx, owner, original.ID, Request{Type: "document"})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Compress() error = %v, want ErrUnsupportedType", err)
	}
}

func TestService_Compress_CrossOwner(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	original := storeOriginal(t, files, locator, owner, "pic.png", testImagePNG(t))

	_, err := svc.Compress(ctx, primitive.NewObjectID(), original.ID, Request{Type: "image"})
	if !errors.Is(err, file.ErrNotFound) {
		t.Errorf("Compress() error = %v, want file.ErrNotFound", err)
	}
}

func TestService_Compress_BadImageData(t *testing.T) {
	svc, files, locator, _ := testPipeline(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	original := storeOriginal(t, files, locator, owner, "fake.png", []byte("not an image"))

	_, err := svc.Compress(ctx, owner, original.ID, Request{Type: "image"})
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Compress() error = %v, want ErrFailed", err)
	}
}
