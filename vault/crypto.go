package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	SuiteAESGCM           = "aes-256-gcm"
	SuiteChaCha20Poly1305 = "chacha20-poly1305"
)

// Cipher seals and opens buffers with a 256-bit key, 96-bit nonce AEAD.
// It holds no key material between calls.
type Cipher struct {
	suite   string
	newAEAD func(key []byte) (cipher.AEAD, error)
}

func NewCipher(suite string) (*Cipher, error) {
	switch suite {
	case "", SuiteAESGCM:
		return &Cipher{suite: SuiteAESGCM, newAEAD: newGCM}, nil
	case SuiteChaCha20Poly1305:
		return &Cipher{suite: SuiteChaCha20Poly1305, newAEAD: chacha20poly1305.New}, nil
	}
	return nil, errors.Errorf("vault: unknown cipher suite %q", suite)
}

func (c *Cipher) Suite() string { return c.suite }

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c *Cipher) aead(op string, key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, newError(op, InvalidKeyLength, fmt.Sprintf("got %d bytes, want %d", len(key), KeyLen))
	}
	if len(nonce) != NonceLen {
		return nil, newError(op, InvalidNonceLength, fmt.Sprintf("got %d bytes, want %d", len(nonce), NonceLen))
	}
	a, err := c.newAEAD(key)
	if err != nil {
		return nil, &Error{Kind: InvalidKeyLength, Op: op, Err: err}
	}
	return a, nil
}

// Seal encrypts plaintext. The ciphertext has the plaintext's length and the
// tag is TagLen bytes.
func (c *Cipher) Seal(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	a, err := c.aead("seal", key, nonce)
	if err != nil {
		return nil, nil, err
	}
	out := a.Seal(nil, nonce, plaintext, nil)
	n := len(out) - a.Overhead()
	return out[:n:n], out[n:], nil
}

// Open verifies tag and decrypts ciphertext. If verification fails no
// plaintext is returned.
func (c *Cipher) Open(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	a, err := c.aead("open", key, nonce)
	if err != nil {
		return nil, err
	}
	if len(tag) != a.Overhead() {
		return nil, newError("open", AuthenticationFailed, "")
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := a.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, newError("open", AuthenticationFailed, "")
	}
	return plaintext, nil
}

func zero(b []byte) {
	memguard.WipeBytes(b)
}

func randBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zero securely wipes a byte slice from memory.
func Zero(b []byte) {
	zero(b)
}

var defaultRand io.Reader = rand.Reader
