package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sehati-health/sehati/internal/flagx"
	"github.com/sehati-health/sehati/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape shared by JSON and YAML files. Durations
// accept "3s" or integer nanoseconds. Empty fields keep the current value.
type FileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	LocalDBPath         string         `json:"local_db_path" yaml:"local_db_path"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	BiometricCommand    string         `json:"biometric_command" yaml:"biometric_command"`
	BiometricTimeout    timex.Duration `json:"biometric_timeout" yaml:"biometric_timeout"`
	KeystoreBackend     string         `json:"keystore_backend" yaml:"keystore_backend"`
	VaultAddr           string         `json:"vault_addr" yaml:"vault_addr"`
	VaultToken          string         `json:"vault_token" yaml:"vault_token"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are read as YAML, everything else as JSON. An unreadable or
// malformed file panics.
func parseFile(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, fc.ServerEndpointAddr)
	setDuration(&cfg.OnlineCheckInterval, fc.OnlineCheckInterval)
	setString(&cfg.LocalDBPath, fc.LocalDBPath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.BiometricCommand, fc.BiometricCommand)
	setDuration(&cfg.BiometricTimeout, fc.BiometricTimeout)
	setString(&cfg.KeystoreBackend, fc.KeystoreBackend)
	setString(&cfg.VaultAddr, fc.VaultAddr)
	setString(&cfg.VaultToken, fc.VaultToken)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
