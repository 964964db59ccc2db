package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/dmitrijs2005/foodkeeper/internal/client/config"
	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/dmitrijs2005/foodkeeper/internal/client/services"
	"github.com/dmitrijs2005/foodkeeper/internal/logging"
	"github.com/google/uuid"
)

// ------------ fake session ------------

type fakeSession struct {
	mu        sync.Mutex
	snap      services.Snapshot
	mode      services.Mode
	listeners map[int]func(services.Snapshot)
	next      int

	passwords map[string]string // email -> password
	LoginErr  error
	RegErr    error

	BootstrapCalls  int
	RevalidateCalls int
	LogoutCalls     int
	LoginEmails     []string
	Registered      []models.RegisterRequest
}

func newFakeSession(snap services.Snapshot) *fakeSession {
	return &fakeSession{
		snap:      snap,
		mode:      services.ModeOnline,
		listeners: make(map[int]func(services.Snapshot)),
		passwords: map[string]string{"a@x.io": "pw"},
	}
}

func authenticatedAs(email string) services.Snapshot {
	return services.Snapshot{
		Status:          services.StatusAuthenticated,
		IsAuthenticated: true,
		User:            &models.User{ID: "u1", Email: email, FullName: "Ann"},
	}
}

var anonymousSnap = services.Snapshot{Status: services.StatusAnonymous}

func (f *fakeSession) Snapshot() services.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) Subscribe(fn func(services.Snapshot)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeSession) set(s services.Snapshot) {
	f.mu.Lock()
	f.snap = s
	fns := make([]func(services.Snapshot), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (f *fakeSession) Bootstrap(context.Context) {
	f.mu.Lock()
	f.BootstrapCalls++
	loading := f.snap.Status == services.StatusLoading
	f.mu.Unlock()
	if loading {
		f.set(anonymousSnap)
	}
}

func (f *fakeSession) Login(_ context.Context, email, password string) error {
	f.mu.Lock()
	f.LoginEmails = append(f.LoginEmails, email)
	err := f.LoginErr
	ok := f.passwords[email] == password && password != ""
	f.mu.Unlock()

	if err == nil && !ok {
		err = &client.APIError{StatusCode: 401, Detail: "Incorrect email or password"}
	}
	if err != nil {
		f.set(anonymousSnap)
		return err
	}
	f.set(authenticatedAs(email))
	return nil
}

func (f *fakeSession) Register(ctx context.Context, email, password, fullName string) error {
	f.mu.Lock()
	f.Registered = append(f.Registered, models.RegisterRequest{Email: email, Password: password, FullName: fullName})
	err := f.RegErr
	if err == nil {
		f.passwords[email] = password
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Login(ctx, email, password)
}

func (f *fakeSession) Logout(context.Context) {
	f.mu.Lock()
	f.LogoutCalls++
	f.mu.Unlock()
	f.set(anonymousSnap)
}

func (f *fakeSession) Revalidate(context.Context) error {
	f.mu.Lock()
	f.RevalidateCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) Mode() services.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeSession) Revalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RevalidateCalls
}

// ------------ fake items ------------

type fakeItems struct {
	mu sync.Mutex

	Items    []models.FoodItem
	Expiring []models.FoodItem
	Draft    *models.FoodItemCreate
	Err      error

	// ExpiringHook runs on every ExpiringSoon call with its 1-based number.
	ExpiringHook func(n int) error

	Calls        []string
	LastOpts     client.ListOptions
	LastID       uuid.UUID
	LastUpdate   models.FoodItemUpdate
	LastCreate   models.FoodItemCreate
	LastDays     int
	LastCode     string
	LastFileName string
	LastFileBody string
	expiringN    int
}

func (f *fakeItems) record(name string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, name)
	f.mu.Unlock()
}

func (f *fakeItems) List(_ context.Context, opts client.ListOptions) ([]models.FoodItem, error) {
	f.record("list")
	f.LastOpts = opts
	return f.Items, f.Err
}

func (f *fakeItems) Get(_ context.Context, id uuid.UUID) (*models.FoodItem, error) {
	f.record("get")
	f.LastID = id
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id, Name: "milk", Quantity: 1, Source: models.SourceManual}, nil
}

func (f *fakeItems) Create(_ context.Context, item models.FoodItemCreate) (*models.FoodItem, error) {
	f.record("create")
	f.LastCreate = item
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: uuid.New(), Name: item.Name}, nil
}

func (f *fakeItems) Update(_ context.Context, id uuid.UUID, upd models.FoodItemUpdate) (*models.FoodItem, error) {
	f.record("update")
	f.LastID = id
	f.LastUpdate = upd
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id, Name: "milk"}, nil
}

func (f *fakeItems) Delete(_ context.Context, id uuid.UUID) (*models.FoodItem, error) {
	f.record("delete")
	f.LastID = id
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: id, Name: "milk"}, nil
}

func (f *fakeItems) ExpiringSoon(_ context.Context, days int) ([]models.FoodItem, error) {
	f.record("expiring")
	f.mu.Lock()
	f.LastDays = days
	f.expiringN++
	n, hook := f.expiringN, f.ExpiringHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(n); err != nil {
			return nil, err
		}
	}
	return f.Expiring, f.Err
}

func (f *fakeItems) LookupBarcode(_ context.Context, code string) (*models.FoodItemCreate, error) {
	f.record("lookup")
	f.LastCode = code
	if f.Err != nil {
		return nil, f.Err
	}
	d := *f.Draft
	return &d, nil
}

func (f *fakeItems) AnalyzeImage(_ context.Context, fileName string, image io.Reader) (*models.FoodItemCreate, error) {
	f.record("analyze")
	body, _ := io.ReadAll(image)
	f.LastFileName, f.LastFileBody = fileName, string(body)
	if f.Err != nil {
		return nil, f.Err
	}
	d := *f.Draft
	return &d, nil
}

func (f *fakeItems) SaveBarcode(_ context.Context, code string) (*models.FoodItem, error) {
	f.record("savebarcode")
	f.LastCode = code
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: uuid.New(), Name: f.Draft.Name}, nil
}

func (f *fakeItems) SaveImage(_ context.Context, fileName string, image io.Reader) (*models.FoodItem, error) {
	f.record("saveimage")
	body, _ := io.ReadAll(image)
	f.LastFileName, f.LastFileBody = fileName, string(body)
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.FoodItem{ID: uuid.New(), Name: f.Draft.Name}, nil
}

func (f *fakeItems) Overview(ctx context.Context, days int) (services.Overview, error) {
	f.record("overview")
	f.LastDays = days
	if f.Err != nil {
		return services.Overview{}, f.Err
	}
	return services.Overview{Items: f.Items, Expiring: f.Expiring}, nil
}

func (f *fakeItems) CallList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

type fakeTokens struct{ token string }

func (f fakeTokens) Get(context.Context) (string, error) { return f.token, nil }

// ------------ helpers ------------

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp(t *testing.T, sess *fakeSession, items *fakeItems, input string) (*App, *syncBuffer) {
	t.Helper()
	stubTerminal(t, false, "", nil)

	var cfg config.Config
	cfg.LoadDefaults()
	out := &syncBuffer{}
	a := newApp(&cfg, logging.Discard(), sess, items, fakeTokens{}, strings.NewReader(input), out)
	return a, out
}
