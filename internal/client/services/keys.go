package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sehati-health/sehati/internal/client/biometric"
	"github.com/sehati-health/sehati/internal/client/config"
	"github.com/sehati-health/sehati/internal/client/keystore"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
)

var (
	ErrNotEnrolled          = errors.New("no biometric enrollment for this wallet")
	ErrBiometricUnavailable = errors.New("biometric gate is not configured")
)

// Gate is the biometric SDK boundary.
type Gate interface {
	Enroll(ctx context.Context, sampleRef, contextID string) (*biometric.Enrollment, error)
	Verify(ctx context.Context, sampleRef, helperData string) (*biometric.Verification, error)
}

// PassphraseFunc asks the user for the keystore passphrase. It is only
// called when a passphrase is actually needed.
type PassphraseFunc func() ([]byte, error)

// KeyService guards the wallet seed. The primary copy lives in the
// configured keystore backend. A biometric enrollment adds a second local
// copy sealed under the key the SDK re-derives from a matching sample.
type KeyService struct {
	db      *sql.DB
	backend string
	gate    Gate
	logger  logging.Logger

	newVault  func() (keystore.Store, error)
	vaultOnce sync.Once
	vault     keystore.Store
	vaultErr  error
}

// NewKeyService wires the backend chosen in cfg. gate may be nil.
func NewKeyService(db *sql.DB, cfg *config.Config, gate Gate, l logging.Logger) *KeyService {
	return &KeyService{
		db:      db,
		backend: cfg.KeystoreBackend,
		gate:    gate,
		logger:  l.With("module", "keys"),
		newVault: func() (keystore.Store, error) {
			return keystore.NewVaultStore(cfg.VaultAddr, cfg.VaultToken)
		},
	}
}

func biometricSlot(walletAddress string) string {
	return walletAddress + "#biometric"
}

// NeedsPassphrase reports whether the primary backend is passphrase sealed.
func (k *KeyService) NeedsPassphrase() bool {
	return k.backend != config.KeystoreVault
}

func (k *KeyService) store(passphrase PassphraseFunc) (keystore.Store, func(), error) {
	switch k.backend {
	case config.KeystoreVault:
		k.vaultOnce.Do(func() { k.vault, k.vaultErr = k.newVault() })
		return k.vault, func() {}, k.vaultErr
	case config.KeystoreSQLite, "":
		pw, err := passphrase()
		if err != nil {
			return nil, nil, err
		}
		defer common.WipeByteArray(pw)
		s := keystore.NewSQLiteStore(k.db, pw)
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown keystore backend %q", common.ErrValidation, k.backend)
	}
}

func (k *KeyService) Import(ctx context.Context, walletAddress string, keyMaterial []byte, passphrase PassphraseFunc) error {
	s, done, err := k.store(passphrase)
	if err != nil {
		return err
	}
	defer done()
	return s.ImportKey(ctx, walletAddress, keyMaterial)
}

func (k *KeyService) Export(ctx context.Context, walletAddress string, passphrase PassphraseFunc) ([]byte, error) {
	s, done, err := k.store(passphrase)
	if err != nil {
		return nil, err
	}
	defer done()
	return s.ExportKey(ctx, walletAddress)
}

// Enroll registers a biometric sample for walletAddress. The seed is read
// with the passphrase once and resealed under the biometric key.
func (k *KeyService) Enroll(ctx context.Context, walletAddress, sampleRef string, passphrase PassphraseFunc) error {
	if k.gate == nil {
		return ErrBiometricUnavailable
	}

	seed, err := k.Export(ctx, walletAddress, passphrase)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(seed)

	e, err := k.gate.Enroll(ctx, sampleRef, walletAddress)
	if err != nil {
		return err
	}
	v, err := k.gate.Verify(ctx, sampleRef, e.HelperData)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(v.DerivedKey)

	return dbx.WithTx(ctx, k.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		s := keystore.NewSQLiteStore(tx, v.DerivedKey)
		defer s.Close()
		if err := s.ImportKey(ctx, biometricSlot(walletAddress), seed); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO biometric_enrollments (wallet_address, helper_data, verifier_hash)
			VALUES (?, ?, ?)
			ON CONFLICT(wallet_address) DO UPDATE SET
				helper_data = excluded.helper_data,
				verifier_hash = excluded.verifier_hash,
				created_at = CURRENT_TIMESTAMP
		`, walletAddress, e.HelperData, e.VerifierHash)
		return err
	})
}

func (k *KeyService) Enrolled(ctx context.Context, walletAddress string) (bool, error) {
	_, err := k.helperData(ctx, walletAddress)
	if errors.Is(err, ErrNotEnrolled) {
		return false, nil
	}
	return err == nil, err
}

func (k *KeyService) helperData(ctx context.Context, walletAddress string) (string, error) {
	var helper string
	err := k.db.QueryRowContext(ctx,
		`SELECT helper_data FROM biometric_enrollments WHERE wallet_address = ?`, walletAddress,
	).Scan(&helper)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotEnrolled
	}
	return helper, err
}

// UnlockBiometric releases the seed on a matching sample. Any mismatch is
// common.ErrBiometricVerificationFailed.
func (k *KeyService) UnlockBiometric(ctx context.Context, walletAddress, sampleRef string) ([]byte, error) {
	if k.gate == nil {
		return nil, ErrBiometricUnavailable
	}
	helper, err := k.helperData(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	v, err := k.gate.Verify(ctx, sampleRef, helper)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(v.DerivedKey)

	s := keystore.NewSQLiteStore(k.db, v.DerivedKey)
	defer s.Close()
	seed, err := s.ExportKey(ctx, biometricSlot(walletAddress))
	if errors.Is(err, common.ErrUnauthorized) {
		return nil, fmt.Errorf("%w: derived key does not open the enrollment", common.ErrBiometricVerificationFailed)
	}
	return seed, err
}

// Unlock returns the wallet seed, trying the biometric gate first when a
// sample is given and falling back to the passphrase when it fails.
func (k *KeyService) Unlock(ctx context.Context, walletAddress, sampleRef string, passphrase PassphraseFunc) ([]byte, error) {
	if k.gate != nil && sampleRef != "" {
		seed, err := k.UnlockBiometric(ctx, walletAddress, sampleRef)
		if err == nil {
			return seed, nil
		}
		if !errors.Is(err, common.ErrBiometricVerificationFailed) && !errors.Is(err, ErrNotEnrolled) {
			return nil, err
		}
		k.logger.Info(ctx, "biometric unlock failed, falling back to passphrase", "wallet", walletAddress)
	}
	return k.Export(ctx, walletAddress, passphrase)
}
