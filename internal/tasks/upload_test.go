package tasks

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/service"
)

type memStorage struct {
	objects map[string]bool
}

func (m *memStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	m.objects[key] = true
	return nil
}

func (m *memStorage) UploadFile(ctx context.Context, key, localPath, contentType string) error {
	m.objects[key] = true
	return nil
}

func (m *memStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *memStorage) GetURL(key string) string {
	return "https://storage.test/" + key
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStorage) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memStorage) Copy(ctx context.Context, oldKey, newKey string) error {
	m.objects[newKey] = true
	return nil
}

func (m *memStorage) DeletePrefix(ctx context.Context, prefix string) error {
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	return m.objects[key], nil
}

// writeTestPNG writes a decodable 1x1 PNG so content sniffing passes.
func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
}

type uploadFixture struct {
	store   *fakeImageStore
	blobs   *memStorage
	task    *UploadTask
	tempDir string
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	store := &fakeImageStore{recs: map[string]*domain.ImageRecord{}}
	blobs := &memStorage{objects: map[string]bool{}}
	tempDir := t.TempDir()

	images := service.NewImageService(store, nil, blobs, nil, service.UploadLimits{
		TempDir:           tempDir,
		MaxFileSize:       10 << 20,
		AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"},
	})

	return &uploadFixture{
		store:   store,
		blobs:   blobs,
		task:    NewUploadTask(images),
		tempDir: tempDir,
	}
}

func TestUploadTask_Run(t *testing.T) {
	fx := newUploadFixture(t)

	tempPath := filepath.Join(fx.tempDir, "enqueue_abc.png")
	writeTestPNG(t, tempPath)

	payload, _ := json.Marshal(domain.UploadPayload{
		TempPath:         tempPath,
		OriginalFilename: "scan.png",
		Status:           domain.StatusUploaded,
		FolderPath:       "forms/2025",
	})

	result, err := fx.task.Run(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := result.(domain.UploadResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if !strings.HasSuffix(out.ImageName, ".png") {
		t.Errorf("expected generated name to keep extension, got %q", out.ImageName)
	}
	if out.Status != domain.StatusUploaded {
		t.Errorf("unexpected status: %s", out.Status)
	}

	// Blob lands under the folder prefix and the record points at it.
	if !fx.blobs.objects["forms/2025/"+out.ImageName] {
		t.Errorf("expected blob at forms/2025/%s, have %v", out.ImageName, fx.blobs.objects)
	}
	if len(fx.store.upserts) != 1 {
		t.Fatalf("expected one record upsert, got %d", len(fx.store.upserts))
	}
	rec := fx.store.upserts[0]
	if rec.FolderPath != "forms/2025" || rec.ImagePath != out.URL {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Spooled temp file removed after the run.
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Error("expected temp file to be removed")
	}
}

func TestUploadTask_ValidationFailure(t *testing.T) {
	fx := newUploadFixture(t)

	// Allowed extension but not a decodable image.
	tempPath := filepath.Join(fx.tempDir, "enqueue_bad.png")
	if err := os.WriteFile(tempPath, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	payload, _ := json.Marshal(domain.UploadPayload{
		TempPath:         tempPath,
		OriginalFilename: "bad.png",
		Status:           domain.StatusUploaded,
	})

	if _, err := fx.task.Run(context.Background(), payload); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fx.store.upserts) != 0 {
		t.Error("expected no record for invalid upload")
	}
	if len(fx.blobs.objects) != 0 {
		t.Error("expected no blob for invalid upload")
	}

	// Temp file still cleaned up on failure.
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Error("expected temp file to be removed")
	}
}
