package security

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProjectPath(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, ValidateProjectPath(filepath.Join(dir, "board.dps")))
	assert.NoError(t, ValidateProjectPath(filepath.Join(dir, "BOARD.DPS")))

	assert.ErrorIs(t, ValidateProjectPath(""), ErrEmptyPath)
	assert.ErrorIs(t, ValidateProjectPath(filepath.Join(dir, "board.json")), ErrBadExtension)
	assert.ErrorIs(t, ValidateProjectPath(filepath.Join(dir, "missing", "board.dps")), ErrNoDirectory)
}

func TestValidatePalettePath(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range PaletteExtensions() {
		assert.NoError(t, ValidatePalettePath(filepath.Join(dir, "palette"+ext)), ext)
	}
	assert.ErrorIs(t, ValidatePalettePath(filepath.Join(dir, "palette.dps")), ErrBadExtension)
	assert.ErrorIs(t, ValidatePalettePath(filepath.Join(dir, "palette")), ErrBadExtension)

	// A regular file is not a directory.
	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.ErrorIs(t, ValidatePalettePath(filepath.Join(file, "palette.gpl")), ErrNoDirectory)
}

func TestValidateLoopbackAddr(t *testing.T) {
	for _, addr := range []string{"127.0.0.1:23333", "localhost:0", "[::1]:9000", "127.0.0.2:1"} {
		assert.NoError(t, ValidateLoopbackAddr(addr), addr)
	}
	for _, addr := range []string{"0.0.0.0:23333", "192.168.1.4:80", ":23333", "example.com:80"} {
		assert.ErrorIs(t, ValidateLoopbackAddr(addr), ErrNotLoopback, addr)
	}
	assert.Error(t, ValidateLoopbackAddr("no-port"))
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/wallpaper.png", false},
		{"http://example.com/wallpaper.png", true},
		{"https://localhost/a.png", true},
		{"https://127.0.0.1/a.png", true},
		{"https://10.1.2.3/a.png", true},
		{"https://[::1]/a.png", true},
		{"https:///a.png", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateHTTPURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
		} else {
			assert.NoError(t, err, tt.url)
		}
	}
}

func TestSafeUint8(t *testing.T) {
	assert.Equal(t, uint8(0), SafeUint8(-7))
	assert.Equal(t, uint8(128), SafeUint8(128))
	assert.Equal(t, uint8(255), SafeUint8(999))
}

func TestLimitedReader(t *testing.T) {
	data, err := io.ReadAll(NewLimitedReader(bytes.NewReader([]byte("abc")), 10))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	_, err = io.ReadAll(NewLimitedReader(bytes.NewReader(make([]byte, 20)), 10))
	assert.ErrorIs(t, err, ErrSizeLimit)
}
