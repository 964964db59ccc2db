package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/foodkeeper/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Register prompts for email, name and password, creates the account and
// logs into it.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	if err := a.session.Register(ctx, email, password, fullName); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	a.printSuccess("Registered and logged in as %s", email)
	return nil
}

// Login prompts for credentials and authenticates. It is also the view the
// gate runs in place of a protected command when there is no session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			return fmt.Errorf("login failed: incorrect email or password")
		case errors.Is(err, client.ErrUnavailable):
			return fmt.Errorf("login failed: server unavailable: %w", err)
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	snap := a.session.Snapshot()
	if snap.User != nil {
		a.printSuccess("Logged in as %s", snap.User.Email)
	}
	return nil
}

// Logout ends the session. It never fails.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	a.printSuccess("Logged out")
	return nil
}

// Status prints the session status without requiring a session.
func (a *App) Status(ctx context.Context) error {
	snap := a.session.Snapshot()
	fmt.Fprintf(a.out, "Status: %s (%s)\n", snap.Status, a.session.Mode())
	if snap.User != nil {
		fmt.Fprintf(a.out, "User:   %s\n", snap.User.Email)
	}
	return nil
}

// Whoami prints the profile of the logged-in user.
func (a *App) Whoami(ctx context.Context) error {
	return a.gate.Render(ctx, func(ctx context.Context) error {
		snap := a.session.Snapshot()
		if snap.User == nil {
			return services.ErrSessionTerminated
		}
		u := snap.User

		fmt.Fprintf(a.out, "ID:     %s\n", u.ID)
		fmt.Fprintf(a.out, "Email:  %s\n", u.Email)
		fmt.Fprintf(a.out, "Name:   %s\n", orDash(u.FullName))

		token, err := a.tokens.Get(ctx)
		if err != nil {
			a.log.Warn(ctx, "failed to read credential", "error", err)
			return nil
		}
		if exp, ok := credentials.ExpiresAt(token); ok {
			left := time.Until(exp).Round(time.Minute)
			if left > 0 {
				fmt.Fprintf(a.out, "Token:  expires %s (in %s)\n", exp.Local().Format(time.DateTime), left)
			} else {
				a.printWarning("Token:  expired %s", exp.Local().Format(time.DateTime))
			}
		}
		return nil
	})
}

// statusLine is the REPL prompt decoration, e.g. "(a@x.io online)".
func (a *App) statusLine() string {
	snap := a.session.Snapshot()
	s := ""
	if snap.User != nil {
		s = snap.User.Email + " "
	}
	s += string(a.session.Mode())
	if !snap.IsAuthenticated {
		s = string(snap.Status) + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}
