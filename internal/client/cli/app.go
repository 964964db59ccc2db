package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/config"
	"github.com/dmitrijs2005/foodkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/foodkeeper/internal/client/gate"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/dmitrijs2005/foodkeeper/internal/client/services"
	"github.com/dmitrijs2005/foodkeeper/internal/client/storage"
	"github.com/dmitrijs2005/foodkeeper/internal/logging"
	"github.com/google/uuid"
)

// Session is what the CLI needs from services.SessionManager.
type Session interface {
	gate.Session
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, fullName string) error
	Logout(ctx context.Context)
	Revalidate(ctx context.Context) error
	Mode() services.Mode
}

// Items is what the CLI needs from services.ItemService.
type Items interface {
	List(ctx context.Context, opts client.ListOptions) ([]models.FoodItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FoodItem, error)
	Create(ctx context.Context, item models.FoodItemCreate) (*models.FoodItem, error)
	Update(ctx context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.FoodItem, error)
	ExpiringSoon(ctx context.Context, days int) ([]models.FoodItem, error)
	LookupBarcode(ctx context.Context, code string) (*models.FoodItemCreate, error)
	AnalyzeImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error)
	SaveBarcode(ctx context.Context, code string) (*models.FoodItem, error)
	SaveImage(ctx context.Context, fileName string, image io.Reader) (*models.FoodItem, error)
	Overview(ctx context.Context, days int) (services.Overview, error)
}

// TokenReader exposes the stored credential for display purposes.
type TokenReader interface {
	Get(ctx context.Context) (string, error)
}

type App struct {
	config  *config.Config
	log     logging.Logger
	session Session
	items   Items
	tokens  TokenReader
	gate    *gate.Gate
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time
	closers []func() error
}

// NewApp opens the credential store and wires the client stack. The session
// is not validated yet; call Start.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.StorePath)
	if err != nil {
		log.Error(ctx, "error initializing credential store", "path", c.StorePath, "error", err)
		return nil, err
	}

	store := credentials.NewSQLiteStore(db)
	api := client.NewHTTPClient(c.ServerURL, store, c.RequestTimeout, log.With("component", "http"))
	session := services.NewSessionManager(api, store, log.With("component", "session"))
	items := services.NewItemService(api, session)

	a := newApp(c, log, session, items, store, os.Stdin, os.Stdout)
	a.closers = append(a.closers, db.Close)

	session.Subscribe(func(s services.Snapshot) {
		log.Debug(ctx, "session changed", "status", string(s.Status))
	})
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, session Session, items Items, tokens TokenReader, in io.Reader, out io.Writer) *App {
	a := &App{
		config:  c,
		log:     log,
		session: session,
		items:   items,
		tokens:  tokens,
		reader:  bufio.NewReader(in),
		out:     out,
		now:     time.Now,
	}
	a.gate = gate.New(session, a.Login, out)
	return a
}

// Start validates the stored credential, if any.
func (a *App) Start(ctx context.Context) {
	a.session.Bootstrap(ctx)
}

// Close releases the credential store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

// StartRevalidation re-checks the session every interval until ctx is done.
// A rejected credential ends the session; an unreachable backend only flips
// the connectivity mode.
func (a *App) StartRevalidation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
			err := a.session.Revalidate(rctx)
			cancel()
			if err != nil {
				a.log.Debug(ctx, "session revalidation failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}
