// Package keystore keeps a wallet's long-term encryption key on the
// patient's side. The server never sees it except through a grant the
// patient chose to issue.
//
// Two backends implement Store: SQLiteStore seals keys in the local client
// database under a passphrase-derived master key, and VaultStore keeps them
// in a HashiCorp Vault KV v2 mount.
package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hengadev/errsx"
	"github.com/sehati-health/sehati/internal/common"
)

// MinKeyLength is the shortest key material accepted by ImportKey.
const MinKeyLength = 16

var ErrKeyNotFound = errors.New("no key stored for this wallet")

type Store interface {
	ExportKey(ctx context.Context, walletAddress string) ([]byte, error)
	ImportKey(ctx context.Context, walletAddress string, keyMaterial []byte) error
}

func validateImport(walletAddress string, keyMaterial []byte) error {
	var errs errsx.Map
	if walletAddress == "" {
		errs.Set("wallet_address", "is required")
	}
	if len(keyMaterial) < MinKeyLength {
		errs.Set("key", fmt.Sprintf("must be at least %d bytes", MinKeyLength))
	}
	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}
	return nil
}
