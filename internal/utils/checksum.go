package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Digests contains the whole-file digests and byte count for one blob
type Digests struct {
	MD5    []byte
	SHA1   []byte
	SHA256 []byte
	Size   int64
}

// ComputeDigests calculates all digests for a stream in a single pass
func ComputeDigests(r io.Reader) (*Digests, error) {
	md5Hash := md5.New()
	sha1Hash := sha1.New()
	sha256Hash := sha256.New()

	// Use MultiWriter to calculate all hashes at once
	multiWriter := io.MultiWriter(md5Hash, sha1Hash, sha256Hash)

	n, err := io.Copy(multiWriter, r)
	if err != nil {
		return nil, err
	}

	return &Digests{
		MD5:    md5Hash.Sum(nil),
		SHA1:   sha1Hash.Sum(nil),
		SHA256: sha256Hash.Sum(nil),
		Size:   n,
	}, nil
}

// DescriptionDigest calculates the digest APT clients use to validate
// the Description field, computed over exactly the rendered value as it
// appears in a generated Packages stanza.
func DescriptionDigest(rendered string) []byte {
	sum := md5.Sum([]byte(rendered))
	return sum[:]
}

// Hex returns the lowercase hex form of a binary digest
func Hex(d []byte) string { return hex.EncodeToString(d) }
