// Package clienttest provides an in-process fake of the inventory backend
// for tests of code that talks HTTP to it.
package clienttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Request is what the fake saw of one incoming call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
}

type account struct {
	password string
	user     models.User
}

// Server is a fake backend. Tokens are issued as "T1", "T2", ... and user
// IDs as "u1", "u2", ... in creation order.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> email
	items    map[string][]models.FoodItem
	barcodes map[string]models.FoodItemCreate
	requests []Request
	nextTok  int
	nextUser int

	// Down makes every endpoint answer 503.
	Down atomic.Bool

	// OnLogin, when set, runs before a login response is written.
	OnLogin func()
	// OnMe, when set, runs before a /users/me response is written.
	OnMe func()

	Now func() time.Time
}

func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		items:    make(map[string][]models.FoodItem),
		barcodes: make(map[string]models.FoodItemCreate),
		Now:      time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// AddUser registers an account directly and returns its ID.
func (s *Server) AddUser(email, password, fullName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, fullName).ID
}

func (s *Server) addUserLocked(email, password, fullName string) models.User {
	s.nextUser++
	u := models.User{ID: "u" + strconv.Itoa(s.nextUser), Email: email, FullName: fullName}
	s.accounts[email] = &account{password: password, user: u}
	return u
}

// IssueToken mints a token for email without a login call.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

func (s *Server) issueLocked(email string) string {
	s.nextTok++
	tok := "T" + strconv.Itoa(s.nextTok)
	s.tokens[tok] = email
	return tok
}

// Revoke invalidates one token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.tokens = make(map[string]string)
	s.mu.Unlock()
}

// AddBarcode makes code resolvable by the barcode endpoint.
func (s *Server) AddBarcode(code string, item models.FoodItemCreate) {
	s.mu.Lock()
	s.barcodes[code] = item
	s.mu.Unlock()
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo filters Requests by path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.availability)

	r.Post("/api/v1/auth/login", s.login)
	r.Post("/api/v1/auth/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/v1/users/me", s.me)
		r.Get("/api/v1/food-items/", s.listItems)
		r.Post("/api/v1/food-items/", s.createItem)
		r.Get("/api/v1/food-items/expiring-soon/", s.expiringSoon)
		r.Get("/api/v1/food-items/{id}", s.getItem)
		r.Put("/api/v1/food-items/{id}", s.updateItem)
		r.Delete("/api/v1/food-items/{id}", s.deleteItem)
		r.Get("/api/v1/barcode/{code}", s.lookupBarcode)
		r.Post("/api/v1/image-analysis/", s.analyzeImage)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Down.Load() {
			writeDetail(w, http.StatusServiceUnavailable, "maintenance")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		email, known := s.tokens[tok]
		s.mu.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		r.Header.Set("X-Fake-Email", email)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		writeDetail(w, http.StatusUnprocessableEntity, "form body expected")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.OnLogin != nil {
		s.OnLogin()
	}

	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	s.mu.Lock()
	acc, ok := s.accounts[email]
	if !ok || acc.password != password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	tok := s.issueLocked(email)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: tok, TokenType: "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []any{"body", "email"}, "msg": "field required"}},
		})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := s.addUserLocked(req.Email, req.Password, req.FullName)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	if s.OnMe != nil {
		s.OnMe()
	}
	email := r.Header.Get("X-Fake-Email")
	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = 100
	}
	category := q.Get("category")

	s.mu.Lock()
	all := s.items[r.Header.Get("X-Fake-Email")]
	out := make([]models.FoodItem, 0, len(all))
	for _, it := range all {
		if category != "" && models.Deref(it.Category) != category {
			continue
		}
		out = append(out, it)
	}
	s.mu.Unlock()

	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in models.FoodItemCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	item := models.FoodItem{
		ID:             uuid.New(),
		Name:           in.Name,
		Barcode:        in.Barcode,
		Category:       in.Category,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
		ImageURL:       in.ImageURL,
		Source:         in.Source,
		AddedAt:        models.Timestamp{Time: s.Now().UTC()},
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Source == "" {
		item.Source = models.SourceManual
	}

	email := r.Header.Get("X-Fake-Email")
	s.mu.Lock()
	s.items[email] = append(s.items[email], item)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) expiringSoon(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		days = 7
	}
	now := s.Now()

	s.mu.Lock()
	var out []models.FoodItem
	for _, it := range s.items[r.Header.Get("X-Fake-Email")] {
		if it.ExpirationDate == nil {
			continue
		}
		if d := it.ExpirationDate.DaysUntil(now); d >= 0 && d <= days {
			out = append(out, it)
		}
	}
	s.mu.Unlock()

	if out == nil {
		out = []models.FoodItem{}
	}
	writeJSON(w, http.StatusOK, out)
}

// withItem runs fn on the caller's item addressed by {id} while holding the lock.
func (s *Server) withItem(w http.ResponseWriter, r *http.Request, fn func(items []models.FoodItem, i int) []models.FoodItem) (models.FoodItem, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return models.FoodItem{}, false
	}
	email := r.Header.Get("X-Fake-Email")

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[email]
	for i := range items {
		if items[i].ID == id {
			it := items[i]
			if fn != nil {
				s.items[email] = fn(items, i)
				if i < len(s.items[email]) && s.items[email][i].ID == id {
					it = s.items[email][i]
				}
			}
			return it, true
		}
	}
	writeDetail(w, http.StatusNotFound, "Food item not found")
	return models.FoodItem{}, false
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	if it, ok := s.withItem(w, r, nil); ok {
		writeJSON(w, http.StatusOK, it)
	}
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var upd models.FoodItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	it, ok := s.withItem(w, r, func(items []models.FoodItem, i int) []models.FoodItem {
		applyUpdate(&items[i], upd)
		return items
	})
	if ok {
		writeJSON(w, http.StatusOK, it)
	}
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	it, ok := s.withItem(w, r, func(items []models.FoodItem, i int) []models.FoodItem {
		return append(items[:i:i], items[i+1:]...)
	})
	if ok {
		writeJSON(w, http.StatusOK, it)
	}
}

func applyUpdate(it *models.FoodItem, upd models.FoodItemUpdate) {
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Barcode != nil {
		it.Barcode = upd.Barcode
	}
	if upd.Category != nil {
		it.Category = upd.Category
	}
	if upd.Quantity != nil {
		it.Quantity = *upd.Quantity
	}
	if upd.ExpirationDate != nil {
		it.ExpirationDate = upd.ExpirationDate
	}
	if upd.ImageURL != nil {
		it.ImageURL = upd.ImageURL
	}
}

func (s *Server) lookupBarcode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.mu.Lock()
	item, ok := s.barcodes[code]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	if item.Barcode == nil {
		item.Barcode = &code
	}
	item.Source = models.SourceBarcode
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) analyzeImage(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer f.Close()

	writeJSON(w, http.StatusOK, models.FoodItemCreate{
		Name:     fmt.Sprintf("analyzed %s (%d bytes)", hdr.Filename, hdr.Size),
		Quantity: 1,
		Source:   models.SourceVision,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
