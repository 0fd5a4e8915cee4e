package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidCiphertext is returned for blobs that are malformed or fail
// authentication.
var ErrInvalidCiphertext = stderrors.New("invalid ciphertext")

// Cipher turns plaintext into a storable string and back.
type Cipher interface {
	Encrypt(plaintext []byte, passphrase []byte) (string, error)
	Decrypt(ciphertext string, passphrase []byte) ([]byte, error)
}

// Argon2Params are the argon2id key derivation costs.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params match the interactive recommendation.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4}

const (
	blobVersion = 1
	saltSize    = 16
	keySize     = 32
)

// AESGCM is a Cipher using AES-256-GCM with an argon2id key derived from the
// passphrase and a per-blob random salt.
//
// Blob layout, base64 encoded: version(1) | salt(16) | nonce(12) | sealed.
type AESGCM struct {
	params Argon2Params
}

// NewAESGCM creates the cipher.
func NewAESGCM(params Argon2Params) *AESGCM {
	return &AESGCM{params: params}
}

func (c *AESGCM) deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, c.params.Time, c.params.Memory, c.params.Threads, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext.
func (c *AESGCM) Encrypt(plaintext, passphrase []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := newGCM(c.deriveKey(passphrase, salt))
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	header := make([]byte, 0, 1+saltSize+len(nonce))
	header = append(header, blobVersion)
	header = append(header, salt...)
	header = append(header, nonce...)
	// The header is authenticated as additional data.
	blob := aead.Seal(header, nonce, plaintext, header)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong passphrase and a
// tampered blob both yield ErrInvalidCiphertext.
func (c *AESGCM) Decrypt(ciphertext string, passphrase []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	if len(blob) < 1+saltSize || blob[0] != blobVersion {
		return nil, ErrInvalidCiphertext
	}
	salt := blob[1 : 1+saltSize]

	aead, err := newGCM(c.deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	headerLen := 1 + saltSize + aead.NonceSize()
	if len(blob) < headerLen+aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}
	header := blob[:headerLen]
	nonce := blob[1+saltSize : headerLen]

	plaintext, err := aead.Open(nil, nonce, blob[headerLen:], header)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}
