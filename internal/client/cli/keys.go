package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sehati-health/sehati/internal/client/services"
	"github.com/sehati-health/sehati/internal/common"
)

const keyUsage = "key export | key import | key enroll <sample> | key unlock [sample]"

func (a *App) Key(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(keyUsage)
	}

	switch args[0] {
	case "import":
		return a.importKey(ctx)
	case "export":
		return a.exportKey(ctx)
	case "enroll":
		if len(args) != 2 {
			return usageError("key enroll <sample>")
		}
		if !a.isLoggedIn() {
			return errNotLoggedIn
		}
		if err := a.keys.Enroll(ctx, a.session.WalletAddress, args[1], a.passphrase("Keystore passphrase")); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Biometric enrolled")
		return nil
	case "unlock":
		if !a.isLoggedIn() {
			return errNotLoggedIn
		}
		sample := ""
		if len(args) > 1 {
			sample = args[1]
		}
		w, err := a.unlock(ctx, a.session.WalletAddress, sample)
		if err != nil {
			return err
		}
		if a.wallet != nil {
			a.wallet.Wipe()
		}
		a.wallet = w
		fmt.Fprintln(a.out, "Wallet unlocked")
		return nil
	default:
		return usageError(keyUsage)
	}
}

// importKey restores a wallet from a hex seed backup into the keystore.
func (a *App) importKey(ctx context.Context) error {
	text, err := getPassword("Wallet seed (hex)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(text)

	seed := make([]byte, hex.DecodedLen(len(text)))
	defer common.WipeByteArray(seed)
	if _, err := hex.Decode(seed, text); err != nil {
		return fmt.Errorf("%w: seed is not hex", common.ErrValidation)
	}

	w, err := services.WalletFromSeed(seed)
	if err != nil {
		return err
	}
	defer w.Wipe()

	var pf services.PassphraseFunc
	if a.keys.NeedsPassphrase() {
		pf = a.newPassphrase()
	}
	if err := a.keys.Import(ctx, w.Address, seed, pf); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported wallet %s\n", w.Address)
	return nil
}

func (a *App) exportKey(ctx context.Context) error {
	addr := ""
	if a.isLoggedIn() {
		addr = a.session.WalletAddress
	} else {
		var err error
		if addr, err = getSimpleText(a.reader, "Wallet address", a.out); err != nil {
			return err
		}
	}

	seed, err := a.keys.Export(ctx, addr, a.passphrase("Keystore passphrase"))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(seed)

	fmt.Fprintf(a.out, "Seed for %s (keep it offline):\n%s\n", addr, hex.EncodeToString(seed))
	return nil
}
