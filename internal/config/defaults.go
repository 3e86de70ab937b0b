package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// CacheDirName is the directory under the user cache directory holding
// the snapshot cache.
const CacheDirName = "reportist"

// DefaultCacheDir returns the platform cache directory for reportist,
// e.g. ~/.cache/reportist on Linux.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return filepath.Join(base, CacheDirName), nil
}
