package storage

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godsvagn/godsvagn/internal/utils"
)

func TestPutAndIdempotency(t *testing.T) {
	store := NewStore(t.TempDir())

	data := []byte("artifact bytes")
	digests, err := utils.ComputeDigests(bytes.NewReader(data))
	require.NoError(t, err)
	hexSum := utils.Hex(digests.SHA256)

	relpath, err := store.Put(data, hexSum)
	require.NoError(t, err)
	assert.Equal(t, "pool/"+hexSum[:2]+"/"+hexSum+".deb", relpath)

	stored, err := os.ReadFile(store.Abs(relpath))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// Re-putting identical content is a no-op that returns the same
	// path and leaves the blob untouched.
	info1, err := os.Stat(store.Abs(relpath))
	require.NoError(t, err)

	again, err := store.Put(data, hexSum)
	require.NoError(t, err)
	assert.Equal(t, relpath, again)

	info2, err := os.Stat(store.Abs(relpath))
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestBlobPathFanOut(t *testing.T) {
	sum := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	assert.Equal(t, "pool/ba/"+sum+".deb", BlobPath(sum))
}
