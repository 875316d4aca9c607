// Package seed derives the seed of the random source used by extraction and
// randomised colour sets, so that runs can be repeated.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/rickrack/internal/extract"
)

// Mode determines how the seed is produced.
type Mode string

const (
	// ModeContent hashes the pixels, so the same image always extracts the
	// same palette wherever it lives.
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute path.
	ModeFilepath Mode = "filepath"
	// ModeManual uses Config.Value.
	ModeManual Mode = "manual"
	// ModeRandom differs on every run.
	ModeRandom Mode = "random"
)

// Config selects a mode and, for ModeManual, the value.
type Config struct {
	Mode  Mode   `toml:"mode"`
	Value *int64 `toml:"value,omitempty"`
}

// ValidModes returns every seed mode.
func ValidModes() []Mode {
	return []Mode{ModeContent, ModeFilepath, ModeManual, ModeRandom}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: content, filepath, manual, random)", s)
}

// Calculate returns the seed for cfg. Content mode needs pixels, filepath
// mode needs a path; modes without their input fall back to a random seed.
func Calculate(px extract.Pixels, path string, cfg Config) (int64, error) {
	switch cfg.Mode {
	case ModeContent:
		if px.Len() == 0 {
			return Random(), nil
		}
		return Content(px), nil
	case ModeFilepath:
		if path == "" {
			return Random(), nil
		}
		return Filepath(path), nil
	case ModeManual:
		if cfg.Value == nil {
			return 0, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *cfg.Value, nil
	case ModeRandom, "":
		return Random(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", cfg.Mode)
	}
}

// New returns a random source seeded per cfg.
func New(px extract.Pixels, path string, cfg Config) (*rand.Rand, int64, error) {
	s, err := Calculate(px, path, cfg)
	if err != nil {
		return nil, 0, err
	}
	return rand.New(rand.NewSource(s)), s, nil // #nosec G404 -- palette choice, not security
}

// Content hashes the raster's dimensions and a grid of at most ~100×100
// of its pixels.
func Content(px extract.Pixels) int64 {
	h := sha256.New()

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(px.Width))  // #nosec G115 -- image dimensions fit
	binary.LittleEndian.PutUint32(dims[4:8], uint32(px.Height)) // #nosec G115 -- image dimensions fit
	h.Write(dims[:])

	step := max(px.Width/100, px.Height/100, 1)
	for y := 0; y < px.Height; y += step {
		for x := 0; x < px.Width; x += step {
			p := px.At(x, y)
			h.Write(p[:])
		}
	}
	return toSeed(h.Sum(nil))
}

// Filepath hashes the absolute form of path. URLs are hashed as given.
func Filepath(path string) int64 {
	abs := path
	if !isURL(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			abs = resolved
		}
	}
	sum := sha256.Sum256([]byte(abs))
	return toSeed(sum[:])
}

// Random returns a clock-derived seed.
func Random() int64 {
	return time.Now().UnixNano()
}

func toSeed(hash []byte) int64 {
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- hash bits reinterpreted
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
