package service

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var testExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
}

func TestValidateUploadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid png", func(t *testing.T) {
		path := filepath.Join(dir, "ok.png")
		writePNG(t, path)
		if err := ValidateUploadFile(path, 10<<20, testExtensions); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := ValidateUploadFile(filepath.Join(dir, "absent.png"), 10<<20, testExtensions); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("disallowed extension", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ValidateUploadFile(path, 10<<20, testExtensions); err == nil {
			t.Error("expected error for .txt")
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		path := filepath.Join(dir, "big.png")
		writePNG(t, path)
		if err := ValidateUploadFile(path, 8, testExtensions); err == nil {
			t.Error("expected error for oversized file")
		}
	})

	t.Run("renamed non-image", func(t *testing.T) {
		path := filepath.Join(dir, "fake.png")
		if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ValidateUploadFile(path, 10<<20, testExtensions); err == nil {
			t.Error("expected error for non-image content")
		}
	})
}

func TestExtensionAllowed(t *testing.T) {
	if !ExtensionAllowed(".jpg", testExtensions) {
		t.Error("expected .jpg to be allowed")
	}
	if ExtensionAllowed(".exe", testExtensions) {
		t.Error("expected .exe to be rejected")
	}
	if ExtensionAllowed("", testExtensions) {
		t.Error("expected empty extension to be rejected")
	}
}
