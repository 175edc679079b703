// Package debtest builds minimal .deb archives in memory for tests.
package debtest

import (
	"archive/tar"
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression selects the control.tar codec of a generated archive
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gz"
	Xz   Compression = "xz"
	Zstd Compression = "zst"
)

// ControlFor returns a well-formed control file for a package with the
// given key fields
func ControlFor(name, version, arch, description string) string {
	return fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\nMaintainer: Test Suite <test@example.org>\nDescription: %s\n",
		name, version, arch, description)
}

// BuildDeb assembles a .deb archive holding the given control file
// text, with the control.tar member compressed as requested
func BuildDeb(control string, comp Compression) ([]byte, error) {
	controlTar, err := tarWithControl(control)
	if err != nil {
		return nil, err
	}

	memberName := "control.tar"
	switch comp {
	case None:
	case Gzip:
		memberName += ".gz"
		controlTar, err = gzipBytes(controlTar)
	case Xz:
		memberName += ".xz"
		controlTar, err = xzBytes(controlTar)
	case Zstd:
		memberName += ".zst"
		controlTar, err = zstdBytes(controlTar)
	default:
		return nil, fmt.Errorf("unknown compression %q", comp)
	}
	if err != nil {
		return nil, err
	}

	dataTar, err := gzipBytes([]byte("payload"))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	writeArMember(&buf, "debian-binary", []byte("2.0\n"))
	writeArMember(&buf, memberName, controlTar)
	writeArMember(&buf, "data.tar.gz", dataTar)
	return buf.Bytes(), nil
}

func tarWithControl(control string) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: "./control",
		Mode: 0644,
		Size: int64(len(control)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write([]byte(control)); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeArMember(buf *bytes.Buffer, name string, data []byte) {
	fmt.Fprintf(buf, "%-16s%-12s%-6s%-6s%-8s%-10d`\n", name, "0", "0", "0", "100644", len(data))
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte('\n')
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xzBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zstdBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
