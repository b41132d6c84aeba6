package service

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnsafePath is returned when a folder path fails sanitization.
var ErrUnsafePath = errors.New("invalid folder path")

// folderPathPattern allows alphanumerics, underscore, hyphen, space, and
// forward slashes as segment separators.
var folderPathPattern = regexp.MustCompile(`^[A-Za-z0-9_\- /]+$`)

// SanitizeFolderPath validates and normalizes a user-supplied folder path,
// rejecting traversal and absolute paths. The empty path (root) is valid.
func SanitizeFolderPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "/") {
		return "", ErrUnsafePath
	}
	if strings.Contains(path, "..") {
		return "", ErrUnsafePath
	}
	if strings.Contains(path, "//") {
		return "", ErrUnsafePath
	}
	if !folderPathPattern.MatchString(path) {
		return "", ErrUnsafePath
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "", ErrUnsafePath
	}

	// No empty or whitespace-only segments
	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) == "" {
			return "", ErrUnsafePath
		}
	}

	return path, nil
}
