package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen      = 16
	keyLen       = 32 // AES-256
	argonTime    = 1
	argonMem     = 64 * 1024 // 64 MB
	argonThreads = 4
)

// errShortData is returned when sealed data is shorter than its nonce.
const errShortData errors.Error = "sealed data too short"

// sealer encrypts and decrypts the vault contents with a key derived from the
// master password.
type sealer struct {
	aead cipher.AEAD
	salt []byte
}

// newSealer derives the key for password and salt with Argon2id.  A nil salt
// generates a fresh one.
func newSealer(password, salt []byte) (s *sealer, err error) {
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err = rand.Read(salt); err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
	}

	key := argon2.IDKey(password, salt, argonTime, argonMem, argonThreads, keyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &sealer{aead: aead, salt: salt}, nil
}

// seal returns the nonce followed by the ciphertext of plaintext.
func (s *sealer) seal(plaintext []byte) (data []byte, err error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal.  It fails if the data was sealed with another key.
func (s *sealer) open(data []byte) (plaintext []byte, err error) {
	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, errShortData
	}

	return s.aead.Open(nil, data[:n], data[n:], nil)
}
