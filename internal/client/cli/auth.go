package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/client"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dustin/go-humanize"
)

// getSimpleText and getCode are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getCode = GetCode

// SignUp registers an account. Missing arguments are prompted for.
func (a *App) SignUp(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, 0, "Enter email")
	if err != nil {
		return err
	}

	fullName := strings.Join(args[min(1, len(args)):], " ")
	if fullName == "" {
		if fullName, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
			return err
		}
	}

	if err := a.authService.SignUp(ctx, fullName, email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "A code was sent to %s. Type 'verify' to enter it.\n", email)
	return nil
}

// SignIn requests a sign-in code for an existing account.
func (a *App) SignIn(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, 0, "Enter email")
	if err != nil {
		return err
	}

	if err := a.authService.SignIn(ctx, email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "A code was sent to %s. Type 'verify' to enter it.\n", email)
	return nil
}

// Verify reads the emailed code without echo and completes the pending
// sign-up or sign-in.
func (a *App) Verify(ctx context.Context) error {
	email, err := a.authService.PendingEmail(ctx)
	if err != nil {
		return err
	}
	if email == "" {
		return client.ErrNoPendingAccount
	}

	fmt.Fprintf(a.out, "Enter the code sent to %s\n", email)
	code, err := getCode(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(code)

	if err := a.authService.Verify(ctx, string(code)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Signed in.")
	return nil
}

// WhoAmI prints the current user and the vault entitlements.
func (a *App) WhoAmI(ctx context.Context) error {
	me, err := a.authService.WhoAmI(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("%s; sign in again", err.Error())
		}
		return err
	}

	acc, e := me.Account, me.Entitlements
	fmt.Fprintf(a.out, "%s <%s>\n", acc.FullName, acc.Email)
	if acc.AvatarURL != "" {
		fmt.Fprintf(a.out, "avatar: %s\n", acc.AvatarURL)
	}
	fmt.Fprintf(a.out, "vault: %s of %s used\n",
		humanize.IBytes(uint64(e.UsedVaultBytes)), humanize.IBytes(uint64(e.MaxVaultBytes)))
	if e.Demo {
		fmt.Fprintln(a.out, "demo account: sharing disabled")
	}
	return nil
}

// Demo signs in as the shared demo account.
func (a *App) Demo(ctx context.Context) error {
	s, err := a.authService.Demo(ctx)
	if err != nil {
		return err
	}

	if s.Existing {
		fmt.Fprintln(a.out, "Signed in as the demo user.")
	} else {
		fmt.Fprintln(a.out, "Demo account created. Signed in as the demo user.")
	}
	return nil
}

// SignOut ends the session. Local state is cleared even when the server
// could not be reached; that failure is logged, not returned.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.authService.SignOut(ctx); err != nil {
		var apiErr *client.APIError
		if errors.Is(err, client.ErrUnavailable) || errors.As(err, &apiErr) {
			a.logger.Warn(ctx, "server sign-out failed", "err", err)
		} else {
			return err
		}
	}

	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) argOrPrompt(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
