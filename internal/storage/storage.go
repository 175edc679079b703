package storage

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// Store keeps artifact blobs under the repository root at paths
// derived from their own SHA256, so storing identical content twice is
// a no-op and concurrent writers of the same bytes cannot conflict.
type Store struct {
	root string
}

// NewStore creates a store rooted at the repository directory
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the repository root directory
func (s *Store) Root() string {
	return s.root
}

// Put writes data at its content address and returns the blob's path
// relative to the repository root. sha256hex must be the hex SHA256 of
// data. Re-putting existing content leaves the stored blob untouched.
func (s *Store) Put(data []byte, sha256hex string) (string, error) {
	relpath := BlobPath(sha256hex)
	abspath := filepath.Join(s.root, filepath.FromSlash(relpath))

	if utils.FileExists(abspath) {
		logrus.Debugf("blob %s already stored, skipping write", sha256hex)
		return relpath, nil
	}

	if err := utils.AtomicWriteFile(abspath, data, 0644); err != nil {
		return "", models.WrapError(models.ErrStorage, "", fmt.Errorf("storing blob %s: %w", sha256hex, err))
	}

	return relpath, nil
}

// Abs resolves a repository-relative path to an absolute one
func (s *Store) Abs(relpath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relpath))
}

// BlobPath derives the repository-relative location for a blob from
// its SHA256. The two-character fan-out keeps pool directories small.
func BlobPath(sha256hex string) string {
	return path.Join("pool", sha256hex[:2], sha256hex+".deb")
}
