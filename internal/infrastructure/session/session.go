package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tsuki42/reddit-clone/internal/infrastructure/kv"
)

// CookieName is the fixed name of the session cookie.
const CookieName = "qid"

// Manager owns the session keyspace and the cookie policy.
type Manager struct {
	store  kv.Store
	ttl    time.Duration
	secure bool
}

func NewManager(store kv.Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure}
}

// Load builds the request-scoped session handle from the inbound cookie.
// A missing or stale cookie yields an anonymous session.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	s := &Session{manager: m, writer: w}
	if cookie, err := r.Cookie(CookieName); err == nil {
		s.id = cookie.Value
	}
	return s
}

// Session is the per-request handle. It holds only the opaque identifier;
// the user id lives server-side in the store.
type Session struct {
	manager *Manager
	writer  http.ResponseWriter
	id      string
}

// UserID resolves the authenticated user id, or "" for an anonymous session.
func (s *Session) UserID(ctx context.Context) (string, error) {
	if s.id == "" {
		return "", nil
	}
	userID, err := s.manager.store.Get(ctx, s.id)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// SetUserID writes the user id into the session record, creating the record
// and issuing the cookie on first write.
func (s *Session) SetUserID(ctx context.Context, userID string) error {
	if s.id == "" {
		id, err := generateID()
		if err != nil {
			return err
		}
		s.id = id
	}

	if err := s.manager.store.Set(ctx, s.id, userID, s.manager.ttl); err != nil {
		return err
	}

	s.setCookie()
	return nil
}

// Destroy deletes the server-side record and instructs the client to drop
// the cookie.
func (s *Session) Destroy(ctx context.Context) error {
	if s.id != "" {
		if err := s.manager.store.Delete(ctx, s.id); err != nil {
			return err
		}
		s.id = ""
	}
	s.clearCookie()
	return nil
}

func (s *Session) setCookie() {
	if s.writer == nil {
		return
	}
	http.SetCookie(s.writer, &http.Cookie{
		Name:     CookieName,
		Value:    s.id,
		Path:     "/",
		MaxAge:   int(s.manager.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.manager.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Session) clearCookie() {
	if s.writer == nil {
		return
	}
	http.SetCookie(s.writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.manager.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

// WithSession stores the handle in the request context for the GraphQL
// boundary, which only sees context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request session, or nil outside a request.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
