// Package cli provides the interactive SEHATI command-line client.
//
// NewApp wires configuration, the local SQLite database, the gRPC client and
// the application services; App.Run restores any saved session, starts a
// background connectivity watcher and hands control to the REPL, which
// blocks until the user exits.
//
// Patients register a wallet, issue and revoke access grants (shown as QR
// codes) and read their audit trail. Doctors validate a scanned grant and
// add or view records under it. The wallet seed never leaves the local
// keystore; it is unlocked with a biometric sample when one is enrolled and
// with the keystore passphrase otherwise.
package cli
