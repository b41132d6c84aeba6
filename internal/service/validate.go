package service

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// FileValidationError marks an upload that failed validation, so handlers
// can map it to a client error instead of a server failure.
type FileValidationError struct {
	Reason string
}

func (e *FileValidationError) Error() string {
	return "file validation failed: " + e.Reason
}

// ValidateUploadFile checks a spooled upload: extension allow-list, size
// cap, and content sniff. The content check decodes only the image header,
// so a renamed non-image file is rejected even with an allowed extension.
func ValidateUploadFile(path string, maxSize int64, allowedExtensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &FileValidationError{Reason: "file does not exist"}
	}
	if info.Size() > maxSize {
		return &FileValidationError{
			Reason: fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), maxSize),
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !ExtensionAllowed(ext, allowedExtensions) {
		return &FileValidationError{
			Reason: fmt.Sprintf("extension %s not allowed", ext),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return &FileValidationError{Reason: "cannot open file"}
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return &FileValidationError{Reason: "file content is not a supported image"}
	}

	return nil
}

// ExtensionAllowed reports whether ext (lowercase, with leading dot) is in
// the allow-list.
func ExtensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
