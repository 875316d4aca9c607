package image

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CacheDir returns the directory remote images are kept in.
func CacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "rickrack", "images"), nil
	}
	return filepath.Join(dir, "rickrack", "images"), nil
}

// CachePath returns where the image at url is cached. The name is a hash of
// the URL plus its extension, so repeated loads of one URL hit one file and
// a content or filepath seed stays stable across runs.
func CachePath(url string) (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheName(url)), nil
}

func cacheName(url string) string {
	sum := sha256.Sum256([]byte(url))

	ext := filepath.Ext(url)
	if i := strings.IndexAny(ext, "?#"); i != -1 {
		ext = ext[:i]
	}
	ext = strings.ToLower(ext)
	if !IsImageFile("x" + ext) {
		ext = ".img"
	}
	return fmt.Sprintf("%x%s", sum[:16], ext)
}

// storeCached writes data to path. Failures leave the cache empty and are
// returned for the caller to log or ignore.
func storeCached(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { // #nosec G306 - Cache files need standard read permissions
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	return nil
}
