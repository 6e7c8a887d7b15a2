package session

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/models"
)

const (
	keyToken    = "token"
	keyUser     = "user"
	keyLastView = "last_view"
)

const ViewHome = "home"

// Validator checks a stored token against the backend.
type Validator interface {
	ValidateToken(ctx context.Context) error
}

// Session is the single writer of the persisted auth state. Dashboards and
// the transport client only read from it (the transport may clear the token
// on a 401, which goes through ClearToken here).
type Session struct {
	store *Store

	mu    sync.RWMutex
	user  *models.User
	token string
	view  string
}

// New restores whatever the store holds from a previous run. A user blob
// that no longer parses is treated as absent.
func New(store *Store) *Session {
	s := &Session{store: store, view: ViewHome}

	if token, ok := store.Get(keyToken); ok {
		s.token = token
	}
	if raw, ok := store.Get(keyUser); ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		}
	}
	if view, ok := store.Get(keyLastView); ok && view != "" {
		s.view = view
	}
	return s
}

// Login persists the user and token and selects the initial view from the
// role. Unrecognized roles land on the generic home view, never a failure.
func (s *Session) Login(user models.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(keyUser, string(raw)); err != nil {
		return err
	}
	if err := s.store.Set(keyToken, token); err != nil {
		return err
	}

	view := initialView(user.Role)
	if err := s.store.Set(keyLastView, view); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.view = view
	s.mu.Unlock()
	return nil
}

func initialView(role string) string {
	switch role {
	case models.RoleDriver:
		return "driver"
	case models.RoleAdmin:
		return "admin"
	case models.RoleWaiter:
		return "waiter"
	case models.RoleCustomer:
		return "customer"
	default:
		return ViewHome
	}
}

// Logout clears the persisted keys together and resets to home.
func (s *Session) Logout() {
	_ = s.store.Delete(keyToken, keyUser, keyLastView)

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.view = ViewHome
	s.mu.Unlock()
}

// IsAuthenticated is true iff both a user and a token are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) HasRole(role string) bool {
	u, ok := s.User()
	return ok && u.Role == role
}

func (s *Session) HasAnyRole(roles ...string) bool {
	u, ok := s.User()
	return ok && slices.Contains(roles, u.Role)
}

func (s *Session) CurrentView() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Session) SwitchView(view string) {
	_ = s.store.Set(keyLastView, view)
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
}

// Token implements the transport's TokenStore.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ClearToken drops only the token, in memory and on disk. The 401 path ends
// here; navigation is up to whoever observes IsAuthenticated next.
func (s *Session) ClearToken() {
	_ = s.store.Delete(keyToken)
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// ValidateOnStart checks a restored token against the backend. Best-effort:
// any failure, validation or network, means "assume invalid, log out". It is
// meant to run in the background so startup never blocks on it.
func (s *Session) ValidateOnStart(ctx context.Context, v Validator) {
	if !s.IsAuthenticated() {
		return
	}
	if err := v.ValidateToken(ctx); err != nil {
		logging.FromContext(ctx).Warn("token_validation_failed", "error", err)
		s.Logout()
	}
}
