package generator

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/godsvagn/godsvagn/internal/config"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// IndexFile describes one generated index as recorded in the Release
// file: its path relative to the dists/<codename> directory, its size,
// and its digests computed over the exact bytes being published.
type IndexFile struct {
	Path    string
	Digests *utils.Digests
}

// BuildReleaseFile renders the Release index. The recorded digests are
// taken from the generated file contents themselves, which is what
// lets APT clients validate the whole index chain.
func BuildReleaseFile(rel config.Release, arches []string, files []IndexFile, now time.Time) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Origin: %s\n", rel.Origin)
	fmt.Fprintf(&buf, "Label: %s\n", rel.Label)
	fmt.Fprintf(&buf, "Suite: %s\n", rel.Suite)
	fmt.Fprintf(&buf, "Codename: %s\n", rel.Codename)
	fmt.Fprintf(&buf, "Architectures: %s\n", strings.Join(arches, " "))
	fmt.Fprintf(&buf, "Components: %s\n", strings.Join(rel.Components, " "))
	fmt.Fprintf(&buf, "Date: %s\n", now.UTC().Format(time.RFC1123Z))

	buf.WriteString("MD5Sum:\n")
	for _, f := range files {
		fmt.Fprintf(&buf, " %s %d %s\n", utils.Hex(f.Digests.MD5), f.Digests.Size, f.Path)
	}

	buf.WriteString("SHA1:\n")
	for _, f := range files {
		fmt.Fprintf(&buf, " %s %d %s\n", utils.Hex(f.Digests.SHA1), f.Digests.Size, f.Path)
	}

	buf.WriteString("SHA256:\n")
	for _, f := range files {
		fmt.Fprintf(&buf, " %s %d %s\n", utils.Hex(f.Digests.SHA256), f.Digests.Size, f.Path)
	}

	return buf.Bytes()
}
