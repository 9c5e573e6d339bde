package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/sehati-health/sehati/internal/client/services"
	"github.com/sehati-health/sehati/internal/common"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) passphrase(prompt string) services.PassphraseFunc {
	return func() ([]byte, error) {
		return getPassword(prompt, a.out)
	}
}

// newPassphrase asks twice and only accepts a matching, non-empty answer.
func (a *App) newPassphrase() services.PassphraseFunc {
	return func() ([]byte, error) {
		first, err := getPassword("New keystore passphrase", a.out)
		if err != nil {
			return nil, err
		}
		second, err := getPassword("Repeat passphrase", a.out)
		if err != nil {
			common.WipeByteArray(first)
			return nil, err
		}
		defer common.WipeByteArray(second)

		if len(first) == 0 || !bytes.Equal(first, second) {
			common.WipeByteArray(first)
			return nil, fmt.Errorf("%w: passphrases are empty or do not match", common.ErrValidation)
		}
		return first, nil
	}
}

func (a *App) sampleRef(arg string) (string, error) {
	if arg != "" || a.config.BiometricCommand == "" {
		return arg, nil
	}
	return getSimpleText(a.reader, "Biometric sample (empty to use the passphrase)", a.out)
}

// Register creates a fresh wallet, seals its seed in the keystore and
// announces it to the server.
func (a *App) Register(ctx context.Context) error {
	role, err := getChoice(a.reader, "Role", a.out, common.RolePatient, common.RoleDoctor)
	if err != nil {
		return err
	}

	p := services.Profile{Role: role}
	if p.DisplayName, err = getSimpleText(a.reader, "Display name", a.out); err != nil {
		return err
	}
	if role == common.RoleDoctor {
		if p.Hospital, err = getSimpleText(a.reader, "Hospital", a.out); err != nil {
			return err
		}
	} else {
		if p.DateOfBirth, err = getSimpleText(a.reader, "Date of birth (YYYY-MM-DD, optional)", a.out); err != nil {
			return err
		}
		if p.Gender, err = getSimpleText(a.reader, "Gender (optional)", a.out); err != nil {
			return err
		}
	}
	if p.Phone, err = getSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
		return err
	}

	w, err := services.NewWallet()
	if err != nil {
		return err
	}
	defer w.Wipe()

	pf := a.newPassphrase()
	if !a.keys.NeedsPassphrase() {
		pf = nil
	}
	if err := a.keys.Import(ctx, w.Address, w.Seed(), pf); err != nil {
		return fmt.Errorf("store wallet key: %w", err)
	}

	id, err := a.auth.Register(ctx, w, p)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered user %s\nWallet address: %s\nUse 'login' with this address.\n", id, w.Address)
	return nil
}

// Login unlocks the wallet seed and signs in with it.
func (a *App) Login(ctx context.Context) error {
	addr, err := getSimpleText(a.reader, "Wallet address", a.out)
	if err != nil {
		return err
	}
	sample, err := a.sampleRef("")
	if err != nil {
		return err
	}

	w, err := a.unlock(ctx, addr, sample)
	if err != nil {
		return err
	}

	s, err := a.auth.Login(ctx, w)
	if err != nil {
		w.Wipe()
		return err
	}

	if a.wallet != nil {
		a.wallet.Wipe()
	}
	a.session, a.wallet = s, w
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", s.WalletAddress, s.Role)
	return nil
}

func (a *App) unlock(ctx context.Context, addr, sample string) (*services.Wallet, error) {
	seed, err := a.keys.Unlock(ctx, addr, sample, a.passphrase("Keystore passphrase"))
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(seed)

	w, err := services.WalletFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if w.Address != addr {
		w.Wipe()
		return nil, fmt.Errorf("%w: stored key belongs to %s", common.ErrUnauthorized, w.Address)
	}
	return w, nil
}

// unlockedWallet returns the session's wallet, unlocking it on first use
// after a resumed session.
func (a *App) unlockedWallet(ctx context.Context) (*services.Wallet, error) {
	if !a.isLoggedIn() {
		return nil, errNotLoggedIn
	}
	if a.wallet != nil {
		return a.wallet, nil
	}
	sample, err := a.sampleRef("")
	if err != nil {
		return nil, err
	}
	w, err := a.unlock(ctx, a.session.WalletAddress, sample)
	if err != nil {
		return nil, err
	}
	a.wallet = w
	return w, nil
}

// Logout ends the server session and forgets the local one and the
// unlocked wallet.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	if a.wallet != nil {
		a.wallet.Wipe()
		a.wallet = nil
	}
	a.session = nil
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "Server:    %s (%s)\n", a.config.ServerEndpointAddr, mode)
	fmt.Fprintf(a.out, "Keystore:  %s\n", a.config.KeystoreBackend)
	fmt.Fprintf(a.out, "Biometric: %t\n", a.config.BiometricCommand != "")
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Session:   none")
		return nil
	}
	fmt.Fprintf(a.out, "Session:   %s %s user=%s unlocked=%t\n",
		a.session.WalletAddress, a.session.Role, a.session.UserID, a.wallet != nil)
	return nil
}
