// Package session keeps one count tally per browser.
package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"cashcount/internal/cache"
	"cashcount/internal/core"
)

// CookieName carries the session id.
const CookieName = "cashcount_session"

// Session owns a tally and serializes every access to it.
type Session struct {
	ID      string
	Created time.Time

	mu    sync.Mutex
	tally *core.Tally
}

// Do runs fn with exclusive access to the tally.
func (s *Session) Do(fn func(t *core.Tally) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tally)
}

// Summary returns a consistent snapshot of the tally.
func (s *Session) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally.Summary()
}

// Config controls session lifetime and capacity.
type Config struct {
	TTL          time.Duration
	MaxSessions  int
	SecureCookie bool
}

// Registry maps session ids to sessions for a single catalog.
type Registry struct {
	catalog  *core.Catalog
	sessions cache.Cache[*Session]
	cfg      Config
	now      func() time.Time
}

var ErrNoSession = errors.New("no session")

func NewRegistry(c *core.Catalog, cfg Config, opts ...cache.Option[*Session]) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	return &Registry{
		catalog:  c,
		sessions: cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.TTL, opts...),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Cache exposes the backing cache so a cache.Manager can sweep it.
func (r *Registry) Cache() cache.Cache[*Session] {
	return r.sessions
}

func (r *Registry) Catalog() *core.Catalog {
	return r.catalog
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

// Create starts a fresh session with every count at zero.
func (r *Registry) Create() *Session {
	s := r.newSession(uuid.NewString())
	r.sessions.Set(s.ID, s)
	return s
}

func (r *Registry) newSession(id string) *Session {
	return &Session{
		ID:      id,
		Created: r.now(),
		tally:   core.NewTally(r.catalog),
	}
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Ensure returns the session named by the request cookie. A missing or
// malformed cookie gets a new id; an unknown or expired id starts a zero
// tally under that id. Concurrent requests carrying the same id share one
// session. The cookie is (re)issued on every call so its lifetime slides
// with activity.
func (r *Registry) Ensure(w http.ResponseWriter, req *http.Request) (*Session, bool) {
	id := cookieValue(req)
	if id == "" {
		id = uuid.NewString()
	}
	s, existed := r.sessions.GetOrCreate(id, func() *Session { return r.newSession(id) })

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(r.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   r.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return s, existed
}

func cookieValue(req *http.Request) string {
	c, err := req.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
