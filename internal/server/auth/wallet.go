package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/sehati-health/sehati/internal/common"
)

// MaxLoginSkew bounds how far a signed login timestamp may be from the
// server clock.
const MaxLoginSkew = 5 * time.Minute

// LoginMessage is the exact byte string a wallet signs to log in.
func LoginMessage(walletAddress string, ts int64) []byte {
	return []byte("sehati-login:" + walletAddress + ":" + strconv.FormatInt(ts, 10))
}

// VerifyLogin checks a hex ed25519 signature of LoginMessage against the
// registered hex public key. Any mismatch, including a stale timestamp,
// returns common.ErrUnauthorized.
func VerifyLogin(publicKeyHex, walletAddress string, ts int64, signatureHex string, now time.Time) error {
	signedAt := time.Unix(ts, 0)
	if d := now.Sub(signedAt); d > MaxLoginSkew || d < -MaxLoginSkew {
		return fmt.Errorf("%w: login signature outside allowed window", common.ErrUnauthorized)
	}

	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: no usable public key", common.ErrUnauthorized)
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed signature", common.ErrUnauthorized)
	}

	if !ed25519.Verify(pub, LoginMessage(walletAddress, ts), sig) {
		return fmt.Errorf("%w: bad signature", common.ErrUnauthorized)
	}
	return nil
}

// SignLogin is the client half of VerifyLogin.
func SignLogin(priv ed25519.PrivateKey, walletAddress string, ts int64) string {
	return hex.EncodeToString(ed25519.Sign(priv, LoginMessage(walletAddress, ts)))
}
