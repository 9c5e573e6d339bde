package config

import (
	"flag"
	"os"
	"time"

	"github.com/sehati-health/sehati/internal/flagx"
)

// Flags owns the config flags so the CLI can strip them before dispatching
// a subcommand.
var Flags = []string{"-a", "-i", "-d", "-l", "-b", "-t", "-k", "-v"}

// parseFlags populates Config from command-line flags.
//
//	-a string   address and port of the backend server
//	-i int      online check interval (seconds)
//	-d string   path of the local SQLite database
//	-l string   log level
//	-b string   biometric SDK command line
//	-t int      biometric timeout (seconds)
//	-k string   keystore backend: sqlite or vault
//	-v string   Vault address
//
// The Vault token is only read from files or VAULT_TOKEN so it does not end
// up in shell history.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], Flags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.BiometricCommand, "b", cfg.BiometricCommand, "biometric SDK command")
	biometricTimeout := fs.Int("t", int(cfg.BiometricTimeout.Seconds()), "biometric timeout (in seconds)")
	fs.StringVar(&cfg.KeystoreBackend, "k", cfg.KeystoreBackend, "keystore backend (sqlite|vault)")
	fs.StringVar(&cfg.VaultAddr, "v", cfg.VaultAddr, "Vault address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.BiometricTimeout = time.Duration(*biometricTimeout) * time.Second

	if cfg.VaultToken == "" {
		cfg.VaultToken = os.Getenv("VAULT_TOKEN")
	}
}
