package deb

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Credentials select the key used to sign a .changes document.
type Credentials struct {
	// Ring is an OpenPGP secret key ring, binary or ASCII-armored.
	Ring io.Reader
	// KeyID is the long (16 hex digits) or short (8 hex digits) key id,
	// with or without a "0x" prefix.
	KeyID string
	// Passphrase unlocks the key.
	Passphrase string
}

// complete reports whether every credential is present.
func (c Credentials) complete() bool {
	return c.Ring != nil && c.KeyID != "" && c.Passphrase != ""
}

// Signer clear-signs documents.
type Signer interface {
	ClearSign(in io.Reader, creds Credentials, out io.Writer) error
}

// OpenPGPSigner is a Signer producing OpenPGP clear-signed messages.
type OpenPGPSigner struct {
	Config *packet.Config
}

// ClearSign writes in to out, wrapped in a clear-signed message made with the
// key selected by creds.
func (s OpenPGPSigner) ClearSign(in io.Reader, creds Credentials, out io.Writer) error {
	key, err := signingKey(creds)
	if err != nil {
		return err
	}

	w, err := clearsign.Encode(out, key, s.Config)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// signingKey finds the private key matching creds.KeyID and unlocks it.
func signingKey(creds Credentials) (*packet.PrivateKey, error) {
	ring, err := io.ReadAll(creds.Ring)
	if err != nil {
		return nil, fmt.Errorf("reading key ring: %w", err)
	}

	var entities openpgp.EntityList
	if bytes.HasPrefix(bytes.TrimSpace(ring), []byte("-----BEGIN")) {
		entities, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(ring))
	} else {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(ring))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing key ring: %w", err)
	}

	id := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(creds.KeyID, "0x"), "0X"))
	matches := func(pk *packet.PublicKey) bool {
		return pk != nil && (pk.KeyIdString() == id || pk.KeyIdShortString() == id)
	}

	var key *packet.PrivateKey
	for _, e := range entities {
		if e.PrivateKey != nil && matches(e.PrimaryKey) {
			key = e.PrivateKey
			break
		}
		for _, sub := range e.Subkeys {
			if sub.PrivateKey != nil && matches(sub.PublicKey) {
				key = sub.PrivateKey
				break
			}
		}
		if key != nil {
			break
		}
	}
	if key == nil {
		return nil, fmt.Errorf("no private key %s in key ring", creds.KeyID)
	}

	if key.Encrypted {
		if err := key.Decrypt([]byte(creds.Passphrase)); err != nil {
			return nil, fmt.Errorf("unlocking key %s: %w", creds.KeyID, err)
		}
	}
	return key, nil
}
