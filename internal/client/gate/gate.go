// Package gate decides whether a protected view may run for the current
// session, should wait for it to settle, or must send the user to login.
package gate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/foodkeeper/internal/client/services"
)

// Decision is the outcome of gating one view.
type Decision int

const (
	Wait Decision = iota
	Redirect
	Render
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// LoadingIndicator is printed while the session is still settling.
const LoadingIndicator = "Loading..."

// Decide maps a session snapshot to a gating decision.
func Decide(s services.Snapshot) Decision {
	switch {
	case s.Status == services.StatusLoading:
		return Wait
	case s.IsAuthenticated:
		return Render
	default:
		return Redirect
	}
}

// View is anything the CLI can run: a command, a REPL action, the login form.
type View func(ctx context.Context) error

// Session is the part of the session manager the gate reads.
type Session interface {
	Snapshot() services.Snapshot
	Subscribe(fn func(services.Snapshot)) (unsubscribe func())
}

type Gate struct {
	session Session
	login   View
	out     io.Writer
}

// New returns a gate that runs login whenever a protected view is
// requested without an authenticated session.
func New(session Session, login View, out io.Writer) *Gate {
	return &Gate{session: session, login: login, out: out}
}

// Render runs view if the session is authenticated right now. Otherwise it
// prints the loading indicator or runs the login view instead; view is not
// invoked in either case.
func (g *Gate) Render(ctx context.Context, view View) error {
	switch Decide(g.session.Snapshot()) {
	case Wait:
		_, err := fmt.Fprintln(g.out, LoadingIndicator)
		return err
	case Redirect:
		return g.login(ctx)
	default:
		return view(ctx)
	}
}

// Watch is Render for long-running views. The context passed to view is
// cancelled as soon as the session stops being authenticated, in which case
// Watch returns services.ErrSessionTerminated.
func (g *Gate) Watch(ctx context.Context, view View) error {
	return g.Render(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		unsubscribe := g.session.Subscribe(func(s services.Snapshot) {
			if Decide(s) != Render {
				cancel(services.ErrSessionTerminated)
			}
		})
		defer unsubscribe()

		// The session may have ended between Render's check and Subscribe.
		if Decide(g.session.Snapshot()) != Render {
			return services.ErrSessionTerminated
		}

		err := view(ctx)
		if errors.Is(context.Cause(ctx), services.ErrSessionTerminated) {
			return services.ErrSessionTerminated
		}
		return err
	})
}
