package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/sehati-health/sehati/internal/client/qr"
	"github.com/sehati-health/sehati/internal/common"
)

// renderQR is a test seam for qr.Render.
var renderQR = qr.Render

const grantUsage = "grant create [ttl] | grant revoke <id|token> | grant list | grant validate <code>"

func (a *App) Grant(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(grantUsage)
	}

	switch args[0] {
	case "create":
		var ttl time.Duration
		if len(args) > 1 {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("%w: bad ttl %q", common.ErrValidation, args[1])
			}
			ttl = d
		}
		return a.createGrant(ctx, ttl)

	case "revoke":
		if len(args) != 2 {
			return usageError("grant revoke <id|token>")
		}
		if !a.isLoggedIn() {
			return errNotLoggedIn
		}
		if err := a.grants.Revoke(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Grant revoked")
		return nil

	case "list":
		return a.listGrants(ctx)

	case "validate":
		if len(args) != 2 {
			return usageError("grant validate <code>")
		}
		v, err := a.grants.Validate(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Grant is active for patient %s", v.PatientID)
		if v.KeyChecked {
			fmt.Fprint(a.out, " (key verified)")
		}
		fmt.Fprintln(a.out)
		return nil

	default:
		return usageError(grantUsage)
	}
}

func (a *App) createGrant(ctx context.Context, ttl time.Duration) error {
	w, err := a.unlockedWallet(ctx)
	if err != nil {
		return err
	}

	issued, err := a.grants.Create(ctx, w, ttl)
	if err != nil {
		return err
	}

	code, err := renderQR(issued.Payload)
	if err != nil {
		a.logger.Warn(ctx, "could not render QR code", "error", err)
	} else {
		fmt.Fprintln(a.out, code)
	}
	fmt.Fprintf(a.out, "Token:   %s\nExpires: %s\nCode:    %s\n",
		issued.Grant.Token, issued.Grant.ExpiresAt.Local().Format(time.RFC1123), issued.Payload)
	return nil
}

func (a *App) listGrants(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	grants, cached, err := a.grants.List(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	if cached {
		fmt.Fprintln(a.out, "Server unreachable, showing grants issued from this device")
	}
	if len(grants) == 0 {
		fmt.Fprintln(a.out, "No grants")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tEXPIRES\tCREATED")
	for _, g := range grants {
		state := "active"
		if !g.Active {
			state = "inactive"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.ID, state,
			g.ExpiresAt.Local().Format(time.DateTime), g.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
