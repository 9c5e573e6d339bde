// Package config loads runtime configuration for the SEHATI CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # File format
//
//	server_endpoint_addr: 127.0.0.1:50051
//	local_db_path: ~/.sehati/client.db
//	biometric_command: /usr/local/bin/sehati-bio --json
//	biometric_timeout: 15s
//	keystore_backend: vault
//	vault_addr: https://vault.internal:8200
//
// The same keys are used in JSON.
package config
