// Package services contains the application services behind the SEHATI
// CLI: wallet identity and session handling, key custody (keystore plus the
// biometric gate), access grants and medical records.
package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/cryptox"
	"github.com/sehati-health/sehati/internal/server/auth"
)

// Wallet is an ed25519 identity. The address is the first 20 bytes of the
// public key, hex encoded with a 0x prefix.
type Wallet struct {
	Address string
	priv    ed25519.PrivateKey
}

func NewWallet() (*Wallet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return walletFromKey(priv), nil
}

// WalletFromSeed rebuilds a wallet from the seed kept in the keystore.
func WalletFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: wallet seed must be %d bytes", common.ErrValidation, ed25519.SeedSize)
	}
	return walletFromKey(ed25519.NewKeyFromSeed(seed)), nil
}

func walletFromKey(priv ed25519.PrivateKey) *Wallet {
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{Address: "0x" + hex.EncodeToString(pub[:20]), priv: priv}
}

func (w *Wallet) Seed() []byte {
	return w.priv.Seed()
}

func (w *Wallet) PublicKeyHex() string {
	return hex.EncodeToString(w.priv.Public().(ed25519.PublicKey))
}

// SignLogin signs the login challenge for unix time ts.
func (w *Wallet) SignLogin(ts int64) string {
	return auth.SignLogin(w.priv, w.Address, ts)
}

// EncryptionKey is the key material handed to the server in a grant,
// base64 encoded.
func (w *Wallet) EncryptionKey() (string, []byte, error) {
	key, err := cryptox.DeriveWalletKey(w.priv.Seed())
	if err != nil {
		return "", nil, err
	}
	return base64.StdEncoding.EncodeToString(key), key, nil
}

func (w *Wallet) Wipe() {
	common.WipeByteArray(w.priv)
}
