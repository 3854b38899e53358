package util

import (
	"os"
	"path/filepath"
)

// GetAbsolutePath joins a path relative to the current working directory.
// Already-absolute paths are returned unchanged.
func GetAbsolutePath(relativePath string) string {
	if filepath.IsAbs(relativePath) {
		return relativePath
	}

	root, err := os.Getwd()
	if err != nil {
		return relativePath
	}

	return filepath.Join(root, relativePath)
}
