// Package image loads source images for extraction and renders boards.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/gen2brain/avif" // Register AVIF format
	_ "golang.org/x/image/webp"   // Register WebP format

	"github.com/jmylchreest/rickrack/internal/extract"
	"github.com/jmylchreest/rickrack/internal/security"
	"github.com/jmylchreest/rickrack/internal/version"
)

const (
	// DefaultTimeout bounds a remote image request.
	DefaultTimeout = 10 * time.Second

	// MaxDownloadBytes caps the size of a remote image.
	MaxDownloadBytes = 50 << 20
)

// SupportedImageExtensions returns the extensions Load recognises.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
}

// IsImageFile reports whether path carries a supported image extension.
func IsImageFile(path string) bool {
	return slices.Contains(SupportedImageExtensions(), strings.ToLower(filepath.Ext(path)))
}

// Load decodes an image from a local path or an HTTPS URL.
// Supported formats: JPEG, PNG, GIF, WebP, AVIF. Remote images are cached under
// CacheDir and later loads of the same URL read the cached copy.
func Load(ctx context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	if isURL(path) {
		return loadURL(ctx, path)
	}
	return loadFile(path)
}

func loadFile(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return decode(file)
}

func loadURL(ctx context.Context, url string) (image.Image, error) {
	if err := security.ValidateHTTPURL(url); err != nil {
		return nil, err
	}

	cached, cacheErr := CachePath(url)
	if cacheErr == nil {
		if info, err := os.Stat(cached); err == nil && !info.IsDir() {
			return loadFile(cached)
		}
	}

	data, err := fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cacheErr == nil {
		_ = storeCached(cached, data)
	}
	return img, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(security.NewLimitedReader(resp.Body, MaxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image from URL: %w", err)
	}
	return data, nil
}

func decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

// ToPixels flattens img into an RGB raster. Alpha is dropped.
func ToPixels(img image.Image) extract.Pixels {
	b := img.Bounds()
	px := extract.NewPixels(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			px.Set(x-b.Min.X, y-b.Min.Y, [3]uint8{c.R, c.G, c.B})
		}
	}
	return px
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
