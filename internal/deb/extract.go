package deb

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/godsvagn/godsvagn/internal/utils"
)

// arMagic opens every Debian binary package; the first ar member is
// always "debian-binary".
var arMagic = []byte("!<arch>\n")

const arHeaderLen = 60

// ExtractControl parses a .deb archive and returns its control stanza
// together with the raw control file text. The data member is not
// inspected; only the container and the control member must be
// well-formed.
func ExtractControl(r io.Reader) (*Stanza, string, error) {
	raw, err := extractControlFile(r)
	if err != nil {
		return nil, "", err
	}

	stanza, err := ParseStanza(raw)
	if err != nil {
		return nil, "", err
	}
	if err := ValidateControl(stanza); err != nil {
		return nil, "", err
	}

	return stanza, string(raw), nil
}

// extractControlFile walks the ar container and returns the
// decompressed control file bytes
func extractControlFile(r io.Reader) ([]byte, error) {
	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, parseErr(fmt.Errorf("truncated archive: %w", err))
	}
	if !bytes.Equal(magic, arMagic) {
		return nil, parseErr(fmt.Errorf("not an ar archive"))
	}

	header := make([]byte, arHeaderLen)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				break
			}
			return nil, parseErr(fmt.Errorf("reading ar header: %w", err))
		}

		// Member name: first 16 bytes, space-padded; GNU ar appends a
		// trailing slash.
		name := strings.TrimRight(strings.TrimSpace(string(header[0:16])), "/")

		// Member size: bytes 48-58, decimal.
		size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
		if err != nil {
			return nil, parseErr(fmt.Errorf("bad ar member size for %q: %w", name, err))
		}

		if strings.HasPrefix(name, "control.tar") {
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, parseErr(fmt.Errorf("truncated control member: %w", err))
			}
			return controlFromTar(data, name)
		}

		// Skip this member's data plus the 2-byte alignment pad.
		skip := size
		if size%2 != 0 {
			skip++
		}
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, parseErr(fmt.Errorf("truncated ar member %q: %w", name, err))
		}
	}

	return nil, parseErr(fmt.Errorf("control.tar not found in archive"))
}

// controlFromTar decompresses a control.tar* member and extracts the
// control file
func controlFromTar(data []byte, name string) ([]byte, error) {
	var tarReader *tar.Reader

	switch {
	case strings.HasSuffix(name, ".gz"):
		plain, err := utils.GzipDecompress(data)
		if err != nil {
			return nil, parseErr(err)
		}
		tarReader = tar.NewReader(bytes.NewReader(plain))
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, parseErr(err)
		}
		tarReader = tar.NewReader(xr)
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, parseErr(err)
		}
		defer zr.Close()
		tarReader = tar.NewReader(zr)
	default:
		tarReader = tar.NewReader(bytes.NewReader(data))
	}

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseErr(err)
		}

		if header.Name == "./control" || header.Name == "control" {
			content, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, parseErr(err)
			}
			return content, nil
		}
	}

	return nil, parseErr(fmt.Errorf("control file not found in %s", name))
}
