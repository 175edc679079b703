package generator

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/config"
	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/signer"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// Lister is the read-only catalog surface the generator consumes. A
// regeneration run never mutates the catalog.
type Lister interface {
	Architectures(ctx context.Context) ([]string, error)
	List(ctx context.Context, architecture string) ([]models.Package, error)
}

// Generator rebuilds the published index files from a catalog
// snapshot. Identical catalog contents and an identical clock always
// yield byte-identical output.
type Generator struct {
	catalog Lister
	signer  signer.Signer // nil for unsigned repositories
	release config.Release
	root    string

	// now is injected so tests can pin the Release timestamp
	now func() time.Time
}

// NewGenerator creates a generator publishing into the repository root
func NewGenerator(catalog Lister, s signer.Signer, rel config.Release, root string) *Generator {
	return &Generator{
		catalog: catalog,
		signer:  s,
		release: rel,
		root:    root,
		now:     time.Now,
	}
}

// SetClock replaces the generation timestamp source
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Generate rebuilds the indices for every architecture known to the
// catalog
func (g *Generator) Generate(ctx context.Context) error {
	return g.GenerateArchitectures(ctx, nil)
}

// GenerateArchitectures rebuilds the published indices. A run always
// covers every architecture the catalog knows: the Release describes
// the whole repository, so regenerating a subset would drop the other
// architectures' index entries while their Packages files stay on
// disk. The extra names only add architectures not yet cataloged,
// they never narrow the run.
//
// All content is assembled and digested in memory first; nothing
// touches the published tree until every file is ready, and each file
// lands through an atomic rename. A failure at any point leaves
// previously published files intact.
func (g *Generator) GenerateArchitectures(ctx context.Context, extra []string) error {
	known, err := g.catalog.Architectures(ctx)
	if err != nil {
		return models.WrapError(models.ErrGeneration, "", err)
	}
	arches := mergeArchitectures(known, extra)
	logrus.Infof("generating repository indices for %d architecture(s)", len(arches))

	component := "main"
	if len(g.release.Components) > 0 {
		component = g.release.Components[0]
	}

	type pendingFile struct {
		relPath string // relative to dists/<codename>
		data    []byte
	}
	var pending []pendingFile
	var indexed []IndexFile

	for _, arch := range arches {
		packages, err := g.catalog.List(ctx, arch)
		if err != nil {
			return models.WrapError(models.ErrGeneration, "", fmt.Errorf("architecture %s: %w", arch, err))
		}

		content, err := BuildPackagesFile(packages)
		if err != nil {
			return err
		}

		gz, err := utils.GzipCompress(content)
		if err != nil {
			return models.WrapError(models.ErrGeneration, "", fmt.Errorf("compressing Packages for %s: %w", arch, err))
		}
		xzData, err := utils.XzCompress(content)
		if err != nil {
			return models.WrapError(models.ErrGeneration, "", fmt.Errorf("compressing Packages for %s: %w", arch, err))
		}

		base := path.Join(component, fmt.Sprintf("binary-%s", arch), "Packages")
		for _, f := range []pendingFile{
			{relPath: base, data: content},
			{relPath: base + ".gz", data: gz},
			{relPath: base + ".xz", data: xzData},
		} {
			digests, err := utils.ComputeDigests(bytes.NewReader(f.data))
			if err != nil {
				return models.WrapError(models.ErrGeneration, "", fmt.Errorf("digesting %s: %w", f.relPath, err))
			}
			pending = append(pending, f)
			indexed = append(indexed, IndexFile{Path: f.relPath, Digests: digests})
		}

		logrus.Infof("built Packages index for %s (%d packages)", arch, len(packages))
	}

	releaseData := BuildReleaseFile(g.release, arches, indexed, g.now())

	distsDir := filepath.Join(g.root, "dists", g.release.Codename)

	// Publish the Packages files first, the Release that describes
	// them after, so a reader holding the new Release always finds
	// index bytes matching its recorded digests.
	for _, f := range pending {
		target := filepath.Join(distsDir, filepath.FromSlash(f.relPath))
		if err := utils.AtomicWriteFile(target, f.data, 0644); err != nil {
			return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing %s: %w", f.relPath, err))
		}
	}

	if err := utils.AtomicWriteFile(filepath.Join(distsDir, "Release"), releaseData, 0644); err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing Release: %w", err))
	}

	if err := g.publishSignatures(distsDir, releaseData); err != nil {
		return err
	}

	logrus.Info("repository indices published")
	return nil
}

// publishSignatures writes InRelease and Release.gpg. Unsigned
// repositories still publish an InRelease carrying the plain Release
// content so that modern APT accepts them with [trusted=yes].
func (g *Generator) publishSignatures(distsDir string, releaseData []byte) error {
	if g.signer == nil {
		if err := utils.AtomicWriteFile(filepath.Join(distsDir, "InRelease"), releaseData, 0644); err != nil {
			return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing InRelease: %w", err))
		}
		logrus.Warn("no signing key configured, repository indices are unsigned")
		return nil
	}

	inRelease, err := g.signer.SignCleartext(releaseData)
	if err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("signing InRelease: %w", err))
	}
	if err := utils.AtomicWriteFile(filepath.Join(distsDir, "InRelease"), inRelease, 0644); err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing InRelease: %w", err))
	}

	detached, err := g.signer.SignDetached(releaseData)
	if err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("signing Release.gpg: %w", err))
	}
	if err := utils.AtomicWriteFile(filepath.Join(distsDir, "Release.gpg"), detached, 0644); err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing Release.gpg: %w", err))
	}

	pubkey, err := g.signer.GetPublicKey()
	if err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("exporting public key: %w", err))
	}
	keyringPath := filepath.Join(g.root, "archive-keyring.gpg")
	if err := utils.AtomicWriteFile(keyringPath, pubkey, 0644); err != nil {
		return models.WrapError(models.ErrGeneration, "", fmt.Errorf("publishing keyring: %w", err))
	}

	logrus.Info("repository indices signed")
	return nil
}

// mergeArchitectures unions the cataloged architectures with any
// extra requested names into a sorted, deduplicated list
func mergeArchitectures(known, extra []string) []string {
	seen := make(map[string]bool, len(known)+len(extra))
	merged := make([]string, 0, len(known)+len(extra))
	for _, arch := range known {
		if arch == "" || seen[arch] {
			continue
		}
		seen[arch] = true
		merged = append(merged, arch)
	}
	for _, arch := range extra {
		if arch == "" || seen[arch] {
			continue
		}
		seen[arch] = true
		merged = append(merged, arch)
	}
	sort.Strings(merged)
	return merged
}
