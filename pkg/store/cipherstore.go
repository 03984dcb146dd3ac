package store

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dd0wney/trellis/pkg/metrics"
)

const (
	keySize          = 32     // AES-256
	nonceSize        = 12     // GCM standard nonce size
	tagSize          = 16     // GCM authentication tag size
	saltSize         = 32     // Salt for PBKDF2
	pbkdf2Iterations = 600000 // OWASP recommended minimum
)

var (
	// ErrAuthenticationFailed is returned when a payload fails GCM
	// verification: wrong passphrase or tampered data.
	ErrAuthenticationFailed = errors.New("authentication failed - wrong passphrase or tampered data")

	errCiphertextTooShort = errors.New("ciphertext too short")
)

// CipherBackend encrypts payloads with AES-256-GCM before handing them to
// the inner backend. Each payload carries its own random salt and nonce:
//
//	[Salt:32][Nonce:12][Ciphertext+Tag:N]
//
// The write key is derived once per backend instance; reads derive from the
// payload's salt, with the most recent derivation cached since PBKDF2 at
// this iteration count is deliberately slow.
type CipherBackend struct {
	inner      Backend
	passphrase []byte

	writeSalt []byte
	writeKey  []byte

	mu       sync.Mutex
	lastSalt []byte
	lastKey  []byte
}

func NewCipherBackend(inner Backend, passphrase string) (*CipherBackend, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	b := &CipherBackend{
		inner:      inner,
		passphrase: []byte(passphrase),
		writeSalt:  salt,
	}
	b.writeKey = b.deriveKey(salt)
	return b, nil
}

// NewCipherStore returns a document store that encrypts every payload before
// it reaches the inner backend.
func NewCipherStore(inner Backend, passphrase string, reg *metrics.Registry) (*DocStore, error) {
	backend, err := NewCipherBackend(inner, passphrase)
	if err != nil {
		return nil, err
	}
	return New(backend, reg), nil
}

func (b *CipherBackend) Put(ctx context.Context, name string, data []byte) error {
	gcm, err := newGCM(b.writeKey)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := make([]byte, 0, saltSize+nonceSize+len(data)+tagSize)
	sealed = append(sealed, b.writeSalt...)
	sealed = append(sealed, nonce...)
	sealed = gcm.Seal(sealed, nonce, data, nil)

	return b.inner.Put(ctx, name, sealed)
}

func (b *CipherBackend) Get(ctx context.Context, name string) ([]byte, error) {
	sealed, err := b.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(sealed) < saltSize+nonceSize+tagSize {
		return nil, errCiphertextTooShort
	}

	salt := sealed[:saltSize]
	nonce := sealed[saltSize : saltSize+nonceSize]
	ciphertext := sealed[saltSize+nonceSize:]

	gcm, err := newGCM(b.deriveKey(salt))
	if err != nil {
		return nil, err
	}

	data, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return data, nil
}

func (b *CipherBackend) List(ctx context.Context) ([]string, error) {
	return b.inner.List(ctx)
}

func (b *CipherBackend) Delete(ctx context.Context, name string) error {
	return b.inner.Delete(ctx, name)
}

func (b *CipherBackend) Kind() string { return b.inner.Kind() + "+aes" }

func (b *CipherBackend) deriveKey(salt []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bytes.Equal(salt, b.writeSalt) && b.writeKey != nil {
		return b.writeKey
	}
	if bytes.Equal(salt, b.lastSalt) {
		return b.lastKey
	}

	key := pbkdf2.Key(b.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
	b.lastSalt = append([]byte(nil), salt...)
	b.lastKey = key
	return key
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
