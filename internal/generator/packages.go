package generator

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/godsvagn/godsvagn/internal/deb"
	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// BuildPackagesFile renders the Packages index for one architecture.
// Each stanza is reconstructed from the stored control text, with the
// repository-layout fields overriding anything of the same name the
// control text may carry. Output is byte-stable for a given package
// list.
func BuildPackagesFile(packages []models.Package) ([]byte, error) {
	sorted := make([]models.Package, len(packages))
	copy(sorted, packages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})

	var buf bytes.Buffer
	for i := range sorted {
		stanza, err := buildStanza(&sorted[i])
		if err != nil {
			return nil, err
		}
		buf.WriteString(stanza.Render())
		// One blank line after every stanza, including the last.
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// buildStanza reconstructs one package stanza and applies the fields
// that depend on repository layout rather than on the artifact itself
func buildStanza(pkg *models.Package) (*deb.Stanza, error) {
	stanza, err := deb.ParseStanza([]byte(pkg.Control))
	if err != nil {
		return nil, models.WrapError(models.ErrGeneration, pkg.Name,
			fmt.Errorf("stored control text unparseable: %w", err))
	}

	stanza.Set("Filename", filepath.ToSlash(pkg.Filepath))
	stanza.Set("Size", strconv.FormatInt(pkg.Size, 10))
	stanza.Set("Description-md5", utils.Hex(pkg.DescriptionMD5))
	stanza.Set("MD5sum", utils.Hex(pkg.MD5))
	stanza.Set("SHA1", utils.Hex(pkg.SHA1))
	stanza.Set("SHA256", utils.Hex(pkg.SHA256))

	return stanza, nil
}
