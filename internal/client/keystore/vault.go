package keystore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/vault/api"
)

const defaultMount = "secret"

// VaultStore keeps key material in a KV v2 secrets engine at
// <mount>/data/sehati/wallets/<address>/key.
type VaultStore struct {
	client *api.Client
	mount  string
}

// NewVaultStore connects to addr with token. Empty values fall back to the
// usual VAULT_ADDR and VAULT_TOKEN environment.
func NewVaultStore(addr, token string) (*VaultStore, error) {
	config := api.DefaultConfig()
	if addr != "" {
		config.Address = addr
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultStore{client: client, mount: defaultMount}, nil
}

func (v *VaultStore) path(walletAddress string) string {
	return fmt.Sprintf("%s/data/sehati/wallets/%s/key", v.mount, walletAddress)
}

func (v *VaultStore) ImportKey(ctx context.Context, walletAddress string, keyMaterial []byte) error {
	if err := validateImport(walletAddress, keyMaterial); err != nil {
		return err
	}

	data := map[string]interface{}{
		"data": map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(keyMaterial),
		},
	}
	if _, err := v.client.Logical().WriteWithContext(ctx, v.path(walletAddress), data); err != nil {
		return fmt.Errorf("failed to write key to Vault: %w", err)
	}
	return nil
}

func (v *VaultStore) ExportKey(ctx context.Context, walletAddress string) ([]byte, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.path(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to read key from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, ErrKeyNotFound
	}

	// a soft-deleted version comes back with data: null
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, ErrKeyNotFound
	}
	value, ok := data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid secret format for wallet %s", walletAddress)
	}

	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	return key, nil
}
