package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathJSON := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_endpoint_addr":  "www.example:9000",
		"online_check_interval": "10s",
		"keystore_backend":      "vault",
	})

	pathYAML := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(pathYAML, []byte(`
server_endpoint_addr: yaml.example:9000
biometric_command: /opt/bio --json
biometric_timeout: 20s
vault_addr: http://vault:8200
`), 0o600))

	t.Run("loads JSON", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathJSON}

		cfg := &Config{LocalDBPath: "keep.db"}
		parseFile(cfg)

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, "vault", cfg.KeystoreBackend)
		assert.Equal(t, "keep.db", cfg.LocalDBPath)
	})

	t.Run("loads YAML", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathYAML}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "yaml.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, []string{"/opt/bio", "--json"}, cfg.BiometricArgv())
		assert.Equal(t, 20*time.Second, cfg.BiometricTimeout)
		assert.Equal(t, "http://vault:8200", cfg.VaultAddr)
		assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			ServerEndpointAddr:  "defaults:1234",
			OnlineCheckInterval: 42 * time.Second,
		}
		parseFile(cfg)

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("invalid YAML duration → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yml")
		require.NoError(t, os.WriteFile(bad, []byte("biometric_timeout: soon\n"), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
