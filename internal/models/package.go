package models

// Package is one cataloged artifact: a single row keyed by
// (name, version, architecture). Rows are immutable after insertion;
// the generator only ever reads them.
//
// This type describes third-party artifacts ingested into the
// repository. It is unrelated to any distributable of this service
// itself and must stay that way.
type Package struct {
	Name         string
	Version      string
	Architecture string

	// Control is the raw control stanza text exactly as extracted
	// from the artifact. Repository-layout fields (Filename, Size,
	// checksums) may be absent; the generator supplies them.
	Control string

	// File information for the stored artifact.
	Size     int64
	Filepath string // relative to the repository root

	// Whole-artifact digests, binary form.
	MD5    []byte
	SHA1   []byte
	SHA256 []byte

	// DescriptionMD5 is the digest of the rendered Description field
	// value, validated by APT clients independently of the file
	// digests.
	DescriptionMD5 []byte
}
