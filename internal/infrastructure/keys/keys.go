// Package keys implements envelope key management: per-file keys are random
// 256-bit values, stored only after being sealed under a wrapping key derived from
// the service master secret.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"secure-share-api/internal/domain/errs"
)

const (
	KeySize = chacha20poly1305.KeySize

	wrapInfo    = "secure-share/key-wrap/v1"
	wrapVersion = "v1."
	minSecret   = 32
)

var ErrShortSecret = errors.New("master secret must be at least 32 bytes")

// Key is a per-file symmetric key.
type Key [KeySize]byte

// String is the hex form handed to users out of band.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

func (k Key) Equal(other Key) bool { return subtle.ConstantTimeCompare(k[:], other[:]) == 1 }

// ParseKey decodes the hex form produced by Key.String.
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(b) != KeySize {
		return k, errs.Validation("key", fmt.Sprintf("must be %d hex characters", KeySize*2))
	}
	copy(k[:], b)
	return k, nil
}

type Manager struct {
	wrapKey []byte
}

// New derives the wrapping key from masterSecret. The secret is never generated
// here; losing it strands every wrapped key.
func New(masterSecret []byte) (*Manager, error) {
	if len(masterSecret) < minSecret {
		return nil, ErrShortSecret
	}

	wk := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterSecret, nil, []byte(wrapInfo)), wk); err != nil {
		return nil, fmt.Errorf("derive wrapping key: %w", err)
	}

	return &Manager{wrapKey: wk}, nil
}

// GenerateFileKey panics if the CSPRNG fails; there is no safe fallback.
func (m *Manager) GenerateFileKey() Key {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		panic(fmt.Sprintf("keys: crypto/rand failed: %v", err))
	}
	return k
}

// Wrap seals key with a fresh nonce: "v1." + base64url(nonce || ciphertext).
func (m *Manager) Wrap(key Key) (string, error) {
	aead, err := chacha20poly1305.NewX(m.wrapKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+KeySize+aead.Overhead())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, key[:], []byte(wrapVersion))

	return wrapVersion + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (m *Manager) Unwrap(wrapped string) (Key, error) {
	var k Key

	body, ok := strings.CutPrefix(wrapped, wrapVersion)
	if !ok {
		return k, fmt.Errorf("%w: unknown wrap format", errs.ErrKeyUnwrap)
	}
	blob, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return k, fmt.Errorf("%w: %v", errs.ErrKeyUnwrap, err)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return k, fmt.Errorf("%w: wrapped key too short", errs.ErrKeyUnwrap)
	}

	aead, err := chacha20poly1305.NewX(m.wrapKey)
	if err != nil {
		return k, err
	}
	plain, err := aead.Open(nil, blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:], []byte(wrapVersion))
	if err != nil {
		return k, fmt.Errorf("%w: master secret changed or blob corrupted", errs.ErrKeyUnwrap)
	}
	if len(plain) != KeySize {
		return k, fmt.Errorf("%w: unexpected key length %d", errs.ErrKeyUnwrap, len(plain))
	}
	copy(k[:], plain)

	return k, nil
}
