package signer

// Signer signs repository index files so APT clients can verify the
// index chain
type Signer interface {
	// SignCleartext creates a cleartext signature (InRelease)
	SignCleartext(data []byte) ([]byte, error)

	// SignDetached creates an armored detached signature (Release.gpg)
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the armored public key
	GetPublicKey() ([]byte, error)
}
