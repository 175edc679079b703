package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool", "ab")

	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Calling it again on an existing directory is a no-op.
	require.NoError(t, EnsureDir(dir))
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "Release")

	require.NoError(t, AtomicWriteFile(target, []byte("first"), 0644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	// Overwrite replaces the content in one step.
	require.NoError(t, AtomicWriteFile(target, []byte("second"), 0644))
	got, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAtomicWriteFileFailureLeavesTargetUntouched(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "Packages")
	require.NoError(t, AtomicWriteFile(target, []byte("published"), 0644))

	// Make the directory unwritable so the temp file cannot be
	// created.
	require.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	err := AtomicWriteFile(target, []byte("broken"), 0644)
	require.Error(t, err)

	require.NoError(t, os.Chmod(dir, 0755))
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "published", string(got))
}

func TestGzipRoundTrip(t *testing.T) {
	data := []byte("Package: mytool\n\n")

	gz, err := GzipCompress(data)
	require.NoError(t, err)

	back, err := GzipDecompress(gz)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestXzCompressProducesXzStream(t *testing.T) {
	out, err := XzCompress([]byte("Package: mytool\n\n"))
	require.NoError(t, err)
	// xz stream header magic
	assert.Equal(t, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, out[:6])
}
