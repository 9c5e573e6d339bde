package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/cryptox"
	"github.com/sehati-health/sehati/internal/dbx"
)

const saltSize = 16

// SQLiteStore seals key material with AES-GCM in the wallet_keys table. Each
// row has its own salt; the sealing key is argon2id(passphrase, salt) and the
// wallet address is bound as additional data.
type SQLiteStore struct {
	db         dbx.DBTX
	passphrase []byte
	now        func() time.Time
}

// NewSQLiteStore copies passphrase; call Close to wipe the copy.
func NewSQLiteStore(db dbx.DBTX, passphrase []byte) *SQLiteStore {
	p := make([]byte, len(passphrase))
	copy(p, passphrase)
	return &SQLiteStore{db: db, passphrase: p, now: time.Now}
}

func (s *SQLiteStore) ImportKey(ctx context.Context, walletAddress string, keyMaterial []byte) error {
	if err := validateImport(walletAddress, keyMaterial); err != nil {
		return err
	}

	salt := common.GenerateRandByteArray(saltSize)
	master := cryptox.DeriveMasterKey(s.passphrase, salt)
	defer common.WipeByteArray(master)

	ciphertext, nonce, err := cryptox.Seal(master, keyMaterial, []byte(walletAddress))
	if err != nil {
		return fmt.Errorf("seal key: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wallet_keys (wallet_address, salt, nonce, ciphertext, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(wallet_address) DO UPDATE SET
			salt = excluded.salt,
			nonce = excluded.nonce,
			ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`, walletAddress, salt, nonce, ciphertext, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store key: %w", err)
	}
	return nil
}

// ExportKey opens the sealed key. A wrong passphrase yields
// common.ErrUnauthorized.
func (s *SQLiteStore) ExportKey(ctx context.Context, walletAddress string) ([]byte, error) {
	var salt, nonce, ciphertext []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT salt, nonce, ciphertext FROM wallet_keys WHERE wallet_address = ?`, walletAddress,
	).Scan(&salt, &nonce, &ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}

	master := cryptox.DeriveMasterKey(s.passphrase, salt)
	defer common.WipeByteArray(master)

	key, err := cryptox.Open(master, ciphertext, nonce, []byte(walletAddress))
	if errors.Is(err, cryptox.ErrDecrypt) {
		return nil, fmt.Errorf("%w: wrong passphrase", common.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("open key: %w", err)
	}
	return key, nil
}

func (s *SQLiteStore) Close() {
	common.WipeByteArray(s.passphrase)
}
