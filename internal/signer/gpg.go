package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// GPGSigner implements Signer with an OpenPGP private key
type GPGSigner struct {
	entity *openpgp.Entity
}

// NewGPGSigner loads a private key from keyPath. Armored and binary
// keyrings are both accepted; passphrase may be empty for unencrypted
// keys.
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	entityList, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		if _, serr := keyFile.Seek(0, 0); serr != nil {
			return nil, serr
		}
		entityList, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}
	if len(entityList) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}

	entity := entityList[0]
	if passphrase != "" {
		if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
			if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
				}
			}
		}
	}

	return &GPGSigner{entity: entity}, nil
}

var signConfig = &packet.Config{DefaultHash: crypto.SHA512}

// SignCleartext creates the cleartext-signed form of data used for
// InRelease
func (s *GPGSigner) SignCleartext(data []byte) ([]byte, error) {
	sig, err := s.detachSignText(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("-----BEGIN PGP SIGNED MESSAGE-----\n")
	buf.WriteString("Hash: SHA512\n")
	buf.WriteString("\n")
	buf.Write(data)
	if !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteString("\n")
	}
	buf.Write(sig)
	return buf.Bytes(), nil
}

// SignDetached creates the armored detached signature used for
// Release.gpg
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), signConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}
	return buf.Bytes(), nil
}

// GetPublicKey returns the public key in armored form, suitable for
// publishing as the repository keyring
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *GPGSigner) detachSignText(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := openpgp.ArmoredDetachSignText(&buf, s.entity, bytes.NewReader(data), signConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return buf.Bytes(), nil
}
