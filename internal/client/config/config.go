package config

import (
	"strings"
	"time"
)

const (
	KeystoreSQLite = "sqlite"
	KeystoreVault  = "vault"
)

// Config holds runtime settings for the SEHATI CLI.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	LocalDBPath         string
	LogLevel            string

	// BiometricCommand is split on whitespace; empty disables the gate.
	BiometricCommand string
	BiometricTimeout time.Duration

	KeystoreBackend string
	VaultAddr       string
	VaultToken      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.LocalDBPath = "sehati_client.db"
	c.LogLevel = "warn"
	c.BiometricTimeout = 15 * time.Second
	c.KeystoreBackend = KeystoreSQLite
}

func (c *Config) BiometricArgv() []string {
	return strings.Fields(c.BiometricCommand)
}

// LoadConfig applies defaults, then a JSON or YAML file (if given with
// -c/-config), then flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
