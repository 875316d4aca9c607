// Package security validates paths, addresses and URLs that arrive from
// outside the process.
package security

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrEmptyPath is returned for blank paths.
	ErrEmptyPath = errors.New("empty path")
	// ErrBadExtension is returned when a path does not carry an accepted extension.
	ErrBadExtension = errors.New("unsupported file extension")
	// ErrNoDirectory is returned when a path's parent directory does not exist.
	ErrNoDirectory = errors.New("parent directory does not exist")
	// ErrNotLoopback is returned for listen addresses outside the loopback interface.
	ErrNotLoopback = errors.New("address is not loopback")
	// ErrSizeLimit is returned by LimitedReader once its budget is spent.
	ErrSizeLimit = errors.New("size limit exceeded")
)

// ProjectExtensions returns the extensions accepted for project files.
func ProjectExtensions() []string {
	return []string{".dps"}
}

// PaletteExtensions returns the extensions accepted for palette files.
func PaletteExtensions() []string {
	return []string{".dpc", ".json", ".gpl", ".txt", ".xml", ".aco", ".ase"}
}

// ValidateProjectPath checks a project file path by extension and parent
// directory. The file itself need not exist.
func ValidateProjectPath(path string) error {
	return validateExchangePath(path, ProjectExtensions())
}

// ValidatePalettePath checks a palette file path by extension and parent
// directory. The file itself need not exist.
func ValidatePalettePath(path string) error {
	return validateExchangePath(path, PaletteExtensions())
}

func validateExchangePath(path string, exts []string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("%w: %q (valid: %s)", ErrBadExtension, ext, strings.Join(exts, ", "))
	}

	dir := filepath.Dir(filepath.Clean(path))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoDirectory, dir)
	}
	return nil
}

// ValidateLoopbackAddr checks that a host:port listen address binds only
// the loopback interface.
func ValidateLoopbackAddr(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if strings.EqualFold(host, "localhost") {
		return nil
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !ip.IsLoopback() {
		return fmt.Errorf("%w: %s", ErrNotLoopback, addr)
	}
	return nil
}

// ValidateHTTPURL checks a remote image URL: HTTPS only, with a public host.
func ValidateHTTPURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("only HTTPS URLs are allowed (got %s)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("URL cannot point to local or private hosts: %s", host)
	}
	return nil
}

// SafeUint8 clamps an integer into 0-255.
func SafeUint8(val int) uint8 {
	return uint8(max(0, min(255, val)))
}

// LimitedReader fails once more than its budget has been read, rather than
// silently truncating like io.LimitedReader.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, ErrSizeLimit
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader wraps r with a budget of maxBytes.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{R: r, Remaining: maxBytes}
}

func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
