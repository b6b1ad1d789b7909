package image

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/hueforge/internal/util/http"
)

// DefaultCacheDir returns the directory remote images are cached in.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "hueforge", "images"), nil
	}
	return filepath.Join(cacheDir, "hueforge", "images"), nil
}

// cacheFilename derives a stable file name from a URL: a hash of the URL
// plus its extension, defaulting to .jpg.
func cacheFilename(url string) string {
	hash := sha256.Sum256([]byte(url))
	name := fmt.Sprintf("%x", hash[:16])

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return name + ext
}

// cached returns the local path of url, downloading it on first use.
func (l *SmartLoader) cached(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(l.CacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(l.CacheDir, cacheFilename(url))
	if _, err := os.Stat(path); err == nil {
		l.logger().Debug("using cached image", "url", url, "path", path)
		return path, nil
	}

	data, err := httputil.Fetch(ctx, url, l.Fetch)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - Cache files need standard read permissions
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	l.logger().Debug("cached image", "url", url, "path", path, "bytes", len(data))
	return path, nil
}
