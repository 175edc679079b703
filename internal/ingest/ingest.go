package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/deb"
	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/storage"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// Inserter is the catalog surface the ingestion service needs. The
// concrete catalog is passed in explicitly so tests can run against
// isolated stores.
type Inserter interface {
	Insert(ctx context.Context, pkg *models.Package) error
}

// Service orchestrates one upload: extract metadata, compute digests,
// store the artifact content-addressed, insert the catalog row.
type Service struct {
	catalog Inserter
	store   *storage.Store
}

// NewService creates an ingestion service
func NewService(catalog Inserter, store *storage.Store) *Service {
	return &Service{catalog: catalog, store: store}
}

// Ingest processes one uploaded artifact as a single logical
// operation. The artifact is stored before the catalog insert, so a
// failed insert never leaves an orphaned row; a stored blob orphaned
// by a Duplicate collision is harmless because its path is derived
// from its own content.
func (s *Service) Ingest(ctx context.Context, data []byte) (*models.Package, error) {
	stanza, rawControl, err := deb.ExtractControl(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	digests, err := utils.ComputeDigests(bytes.NewReader(data))
	if err != nil {
		return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("computing digests: %w", err))
	}

	name, _ := stanza.Get("Package")
	version, _ := stanza.Get("Version")
	arch, _ := stanza.Get("Architecture")
	description, _ := stanza.Get("Description")

	relpath, err := s.store.Put(data, utils.Hex(digests.SHA256))
	if err != nil {
		// Nothing was cataloged; the upload can simply be retried.
		return nil, err
	}

	pkg := &models.Package{
		Name:           name,
		Version:        version,
		Architecture:   arch,
		Control:        rawControl,
		Size:           digests.Size,
		Filepath:       relpath,
		MD5:            digests.MD5,
		SHA1:           digests.SHA1,
		SHA256:         digests.SHA256,
		DescriptionMD5: utils.DescriptionDigest(description),
	}

	if err := s.catalog.Insert(ctx, pkg); err != nil {
		return nil, err
	}

	logrus.Infof("ingested %s %s (%s), %d bytes at %s", name, version, arch, pkg.Size, relpath)
	return pkg, nil
}
