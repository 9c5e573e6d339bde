// Package cryptox holds the symmetric primitives used by SEHATI: AES-GCM
// sealing, HKDF derivation of record keys from grant key material, and
// argon2id derivation of device master keys for the local keystore.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length used everywhere.
const KeySize = 32

// ErrDecrypt is returned when a ciphertext fails authentication, which almost
// always means the wrong key was used.
var ErrDecrypt = errors.New("decryption failed")

const (
	recordKeyInfo = "sehati/medical-record/v1"
	walletKeyInfo = "sehati/wallet-encryption/v1"
)

// DeriveMasterKey stretches a passphrase into a 32-byte key with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// DeriveRecordKey turns opaque grant key material into an AES-256 key bound
// to a single patient. The same material and patient always give the same key.
func DeriveRecordKey(keyMaterial []byte, patientID string) ([]byte, error) {
	r := hkdf.New(sha256.New, keyMaterial, []byte(patientID), []byte(recordKeyInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveWalletKey turns a wallet's signing seed into the encryption key the
// patient shares through grants. Knowing the result does not reveal the seed.
func DeriveWalletKey(seed []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, seed, nil, []byte(walletKeyInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts plaintext with AES-GCM under key. additionalData is
// authenticated but not encrypted. A fresh random nonce is returned alongside.
func Seal(key, plaintext, additionalData []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return aesgcm.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

// Open reverses Seal. Any authentication failure is reported as ErrDecrypt.
func Open(key, ciphertext, nonce, additionalData []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, ErrDecrypt
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// ContentHash is the hex SHA-256 of a plaintext payload, stored next to the
// record so it can be anchored on an external ledger.
func ContentHash(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
