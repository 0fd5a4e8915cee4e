// Package securestore encrypts values before they reach the secure object
// store and decrypts them on the way out. The passphrase lives only in
// process memory.
package securestore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Store is the persistence the codec needs. storage.SecureRepo implements it.
type Store interface {
	FindByKey(ctx context.Context, key string) (*model.SecureData, error)
	Upsert(ctx context.Context, key, ciphertext string, now time.Time) (*model.SecureData, error)
	DeleteByKey(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) []string
}

// Codec is the secure blob codec.
type Codec struct {
	store  Store
	cipher Cipher
	now    func() time.Time

	mu         sync.RWMutex
	passphrase []byte
}

// New creates a codec. A nil cipher uses AES-GCM with DefaultArgon2Params.
func New(store Store, c Cipher) *Codec {
	if c == nil {
		c = NewAESGCM(DefaultArgon2Params)
	}
	return &Codec{store: store, cipher: c, now: time.Now}
}

// Configure sets the session passphrase.
func (c *Codec) Configure(passphrase string) error {
	if passphrase == "" {
		return errors.NewUserErrorWithField("passphrase", "", "passphrase is required", "Set MINDSTORE_PASSPHRASE or enter one when prompted")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passphrase = []byte(passphrase)
	return nil
}

// Forget drops the passphrase from memory.
func (c *Codec) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.passphrase)
	c.passphrase = nil
}

// Configured reports whether a passphrase is set.
func (c *Codec) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.passphrase) > 0
}

func (c *Codec) key() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.passphrase) == 0 {
		return nil, errors.ErrEncryptionUnavailable
	}
	return slices.Clone(c.passphrase), nil
}

// Store encrypts value as JSON and stores it under key, replacing any
// existing value.
func (c *Codec) Store(ctx context.Context, key string, value any) error {
	pass, err := c.key()
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrEncryptionFailure, err)
	}
	ciphertext, err := c.cipher.Encrypt(plaintext, pass)
	clear(plaintext)
	if err != nil {
		logging.ErrorContext(ctx, "encrypt failed", logging.KeyOperation, "secure.store", logging.KeyError, err)
		return fmt.Errorf("%w: %v", errors.ErrEncryptionFailure, err)
	}
	_, err = c.store.Upsert(ctx, key, ciphertext, c.now())
	return err
}

// Retrieve decrypts the value stored under key into v. It reports false
// when no value exists.
func (c *Codec) Retrieve(ctx context.Context, key string, v any) (bool, error) {
	rec, err := c.store.FindByKey(ctx, key)
	if err != nil {
		logging.WarnContext(ctx, "secure lookup failed", logging.KeyOperation, "secure.retrieve", logging.KeyError, err)
		return false, nil
	}
	if rec == nil {
		return false, nil
	}

	pass, err := c.key()
	if err != nil {
		return false, err
	}
	plaintext, err := c.cipher.Decrypt(rec.Ciphertext, pass)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrDecryptionFailure, err)
	}
	defer clear(plaintext)
	if err := json.Unmarshal(plaintext, v); err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrDecryptionFailure, err)
	}
	return true, nil
}

// Delete removes the value stored under key. A missing key is not an error.
func (c *Codec) Delete(ctx context.Context, key string) error {
	_, err := c.store.DeleteByKey(ctx, key)
	return err
}

// Keys lists the stored keys.
func (c *Codec) Keys(ctx context.Context) []string {
	return c.store.Keys(ctx)
}
