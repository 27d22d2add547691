package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxPathLength = 4096

// ValidateFilePath expands ~ and returns a clean absolute path for a file the
// CLI writes to (log file, generated config). The target must not be a
// directory.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", maxPathLength)
	}
	for _, r := range path {
		if r == 0 || (r < 32 && r != '\t') {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage in %q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", abs)
	}
	return abs, nil
}
