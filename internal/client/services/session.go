// Package services contains application services for the FoodKeeper client.
// This file defines the session manager: boot validation, login, register,
// logout, revalidation and forced expiry of the single client session.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/dmitrijs2005/foodkeeper/internal/logging"
	"golang.org/x/sync/semaphore"
)

// State is the internal lifecycle state of a session.
type State int

const (
	StateBootstrapping State = iota
	StateAnonymous
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the externally visible session status.
type Status string

const (
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

func (s State) Status() Status {
	switch s {
	case StateAuthenticated:
		return StatusAuthenticated
	case StateAnonymous:
		return StatusAnonymous
	default:
		return StatusLoading
	}
}

// Mode is the connectivity mode observed by the last backend call.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Snapshot is a point-in-time view of the session. User is a copy and is
// non-nil exactly when IsAuthenticated is true.
type Snapshot struct {
	User            *models.User
	Status          Status
	IsAuthenticated bool
}

// SessionManager owns the session state machine.
//
// Bootstrap, Login, Register and Revalidate talk to the backend and run one
// at a time. Logout and Expire never wait for them: they bump the session
// epoch, and an operation that started under an older epoch does not commit.
type SessionManager struct {
	api   client.AuthAPI
	store credentials.Store
	log   logging.Logger
	ops   *semaphore.Weighted

	mu        sync.Mutex
	state     State
	user      *models.User
	mode      Mode
	epoch     uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewSessionManager(api client.AuthAPI, store credentials.Store, log logging.Logger) *SessionManager {
	return &SessionManager{
		api:       api,
		store:     store,
		log:       log,
		ops:       semaphore.NewWeighted(1),
		state:     StateBootstrapping,
		mode:      ModeOnline,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session view.
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *SessionManager) snapshotLocked() Snapshot {
	s := Snapshot{Status: m.state.Status()}
	if m.state == StateAuthenticated && m.user != nil {
		u := *m.user
		s.User = &u
		s.IsAuthenticated = true
	}
	return s
}

func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *SessionManager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Subscribe registers fn to be called after every snapshot change and
// returns a function that removes it. fn runs on the goroutine that caused
// the change and must not block.
func (m *SessionManager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// transitionLocked moves to state and returns the listeners to notify, or
// nil when nothing observable changed.
func (m *SessionManager) transitionLocked(state State, user *models.User) ([]func(Snapshot), Snapshot) {
	before := m.snapshotLocked()
	m.state = state
	m.user = user
	after := m.snapshotLocked()

	if sameSnapshot(before, after) {
		return nil, after
	}
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns, after
}

func notify(fns []func(Snapshot), s Snapshot) {
	for _, fn := range fns {
		fn(s)
	}
}

func sameSnapshot(a, b Snapshot) bool {
	if a.Status != b.Status || a.IsAuthenticated != b.IsAuthenticated {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}

func (m *SessionManager) setModeLocked(ctx context.Context, mode Mode) {
	if m.mode != mode {
		m.mode = mode
		m.log.Info(ctx, "switched connectivity mode", "mode", string(mode))
	}
}

// begin enters state and returns the epoch the operation runs under.
func (m *SessionManager) begin(state State) uint64 {
	m.mu.Lock()
	fns, s := m.transitionLocked(state, nil)
	epoch := m.epoch
	m.mu.Unlock()

	notify(fns, s)
	return epoch
}

// commit makes user the authenticated principal unless the session was
// terminated after epoch was taken.
func (m *SessionManager) commit(ctx context.Context, epoch uint64, user *models.User) error {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return ErrSessionTerminated
	}
	u := *user
	fns, s := m.transitionLocked(StateAuthenticated, &u)
	m.setModeLocked(ctx, ModeOnline)
	m.mu.Unlock()

	notify(fns, s)
	return nil
}

// rollback clears the credential and goes anonymous unless the session was
// already terminated after epoch was taken.
func (m *SessionManager) rollback(ctx context.Context, epoch uint64) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	m.clearLocked(ctx)
	fns, s := m.transitionLocked(StateAnonymous, nil)
	m.mu.Unlock()

	notify(fns, s)
	return true
}

func (m *SessionManager) clearLocked(ctx context.Context) {
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.log.Error(ctx, "failed to clear credential", "error", err)
	}
}

// Bootstrap validates a stored credential, if any. It never fails: a missing
// or rejected credential, or a backend that cannot be reached, all end in
// the anonymous state with the store cleared.
func (m *SessionManager) Bootstrap(ctx context.Context) {
	if err := m.ops.Acquire(ctx, 1); err != nil {
		m.log.Warn(ctx, "session bootstrap abandoned", "error", err)
		m.abandon()
		return
	}
	defer m.ops.Release(1)

	epoch := m.begin(StateBootstrapping)

	token, err := m.store.Get(ctx)
	if err != nil {
		m.log.Error(ctx, "failed to read credential", "error", err)
		m.rollback(ctx, epoch)
		return
	}
	if token == "" {
		m.log.Debug(ctx, "no stored credential")
		m.rollback(ctx, epoch)
		return
	}

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.log.Info(ctx, "stored credential not accepted", "error", err)
		m.rollback(ctx, epoch)
		return
	}

	if err := m.commit(ctx, epoch, user); err != nil {
		m.log.Debug(ctx, "session bootstrap superseded", "error", err)
		return
	}
	m.log.Info(ctx, "session restored", "user", user.Email)
}

// abandon leaves a session that never got validated as anonymous without
// touching the store.
func (m *SessionManager) abandon() {
	m.mu.Lock()
	if m.state != StateBootstrapping {
		m.mu.Unlock()
		return
	}
	fns, s := m.transitionLocked(StateAnonymous, nil)
	m.mu.Unlock()
	notify(fns, s)
}

// Login authenticates with email and password. On any failure the
// credential is cleared, the session is anonymous and the error is returned.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	if err := m.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.ops.Release(1)

	return m.login(ctx, email, password)
}

func (m *SessionManager) login(ctx context.Context, email, password string) error {
	epoch := m.begin(StateAuthenticating)

	fail := func(err error) error {
		if !m.rollback(ctx, epoch) {
			return ErrSessionTerminated
		}
		m.log.Info(ctx, "login failed", "user", email, "error", err)
		return err
	}

	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		return fail(fmt.Errorf("login: %w", err))
	}

	if err := m.storeToken(ctx, epoch, token); err != nil {
		return fail(err)
	}

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch profile: %w", err))
	}

	if err := m.commit(ctx, epoch, user); err != nil {
		return err
	}
	m.log.Info(ctx, "logged in", "user", user.Email)
	return nil
}

// storeToken persists token unless the session was terminated after epoch
// was taken.
func (m *SessionManager) storeToken(ctx context.Context, epoch uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return ErrSessionTerminated
	}
	if err := m.store.Set(ctx, token); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Register creates an account and then logs into it. A registration failure
// is returned as is and leaves the session untouched.
func (m *SessionManager) Register(ctx context.Context, email, password, fullName string) error {
	if err := m.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.ops.Release(1)

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	req := models.RegisterRequest{Email: email, Password: password, FullName: fullName}
	if err := m.api.Register(ctx, req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	m.log.Info(ctx, "registered", "user", email)

	m.mu.Lock()
	terminated := m.epoch != epoch
	m.mu.Unlock()
	if terminated {
		return ErrSessionTerminated
	}

	return m.login(ctx, email, password)
}

// Logout ends the session immediately. It never fails and never waits for
// an operation in flight.
func (m *SessionManager) Logout(ctx context.Context) {
	m.terminate(ctx)
	m.log.Info(ctx, "logged out")
}

// Expire ends the session because the backend rejected the credential on a
// regular request.
func (m *SessionManager) Expire(ctx context.Context) {
	if m.terminate(ctx) {
		m.log.Warn(ctx, "session expired")
	}
}

// terminate reports whether the session was authenticated before.
func (m *SessionManager) terminate(ctx context.Context) bool {
	m.mu.Lock()
	wasAuthenticated := m.state == StateAuthenticated
	m.epoch++
	m.clearLocked(ctx)
	fns, s := m.transitionLocked(StateAnonymous, nil)
	m.mu.Unlock()

	notify(fns, s)
	return wasAuthenticated
}

// Revalidate re-fetches the profile of an authenticated session. A rejected
// credential ends the session. Any other failure keeps it and switches the
// connectivity mode to offline. Revalidate is a no-op unless authenticated.
func (m *SessionManager) Revalidate(ctx context.Context) error {
	if err := m.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.ops.Release(1)

	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	user, err := m.api.CurrentUser(ctx)
	switch {
	case err == nil:
		return m.commit(ctx, epoch, user)

	case errors.Is(err, client.ErrUnauthorized):
		if m.rollback(ctx, epoch) {
			m.log.Warn(ctx, "session expired", "error", err)
		}
		return fmt.Errorf("revalidate: %w", err)

	default:
		m.mu.Lock()
		if m.epoch == epoch {
			m.setModeLocked(ctx, ModeOffline)
		}
		m.mu.Unlock()
		return fmt.Errorf("revalidate: %w", err)
	}
}
