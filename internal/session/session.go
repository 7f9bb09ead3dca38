// Package session keeps the per-browser settings of the dashboard: the
// bearer token, the API base URL and the theme. Sessions are bound to a
// cookie and persisted in a pluggable Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "sgfcp/internal/log"
)

const (
	// DefaultCookieName is the session cookie.
	DefaultCookieName = "sgfcp_session"
	// DefaultBaseURL is used until the user picks another backend.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTTL is the idle lifetime of a session.
	DefaultTTL = 12 * time.Hour
)

const (
	keyToken   = "token"
	keyBaseURL = "base_url"
	keyTheme   = "theme"
	keyCSRF    = "csrf"
)

var (
	// ErrInvalidTheme rejects anything but light and dark.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidBaseURL rejects base URLs that are not absolute http(s).
	ErrInvalidBaseURL = errors.New("invalid base url")
)

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeLight
)

// ParseTheme validates s.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) String() string { return string(t) }

// NormalizeBaseURL trims whitespace and trailing slashes and checks that
// raw is an absolute http or https URL.
func NormalizeBaseURL(raw string) (string, error) {
	v := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(v)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return v, nil
}

// Config holds Manager settings.
type Config struct {
	CookieName     string
	TTL            time.Duration
	Secure         bool
	Secret         string
	DefaultBaseURL string
}

// Manager loads and commits cookie-bound sessions.
type Manager struct {
	store          Store
	cookieName     string
	ttl            time.Duration
	secure         bool
	secret         []byte
	defaultBaseURL string
	logger         *applog.Logger
}

// Session holds per-request session data.
type Session struct {
	ID             string
	values         Values
	defaultBaseURL string
	previousID     string
	isNew          bool
	dirty          bool
}

// NewManager constructs a Manager over store.
func NewManager(store Store, cfg Config, logger *applog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	base, err := NormalizeBaseURL(cfg.DefaultBaseURL)
	if err != nil {
		base = DefaultBaseURL
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{
		store:          store,
		cookieName:     cfg.CookieName,
		ttl:            cfg.TTL,
		secure:         cfg.Secure,
		secret:         []byte(cfg.Secret),
		defaultBaseURL: base,
		logger:         logger.WithComponent(applog.ComponentSession),
	}
}

// New returns a fresh, unsaved session. Used by tools that have no request.
func (m *Manager) New() *Session {
	return &Session{
		ID:             uuid.NewString(),
		values:         make(Values),
		defaultBaseURL: m.defaultBaseURL,
		isNew:          true,
		dirty:          true,
	}
}

// Load returns the session named by the request cookie, or a new one when
// the cookie is missing or its session is gone.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return m.New(), nil
		}
		return nil, err
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return m.New(), nil
	}

	values, err := m.store.Load(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.New(), nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if values == nil {
		values = make(Values)
	}
	return &Session{
		ID:             cookie.Value,
		values:         values,
		defaultBaseURL: m.defaultBaseURL,
	}, nil
}

// Commit persists the session and refreshes the cookie. Store and cookie
// expire together: an unchanged session still gets its store TTL extended.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.previousID != "" {
		if err := m.store.Delete(ctx, sess.previousID); err != nil {
			return fmt.Errorf("delete renewed session: %w", err)
		}
		sess.previousID = ""
	}

	if sess.dirty || sess.isNew {
		if err := m.store.Save(ctx, sess.ID, sess.values, m.ttl); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if sess.isNew {
			m.logger.DebugContext(ctx, "Session created", applog.FieldSessionID, sess.ID)
		}
		sess.dirty = false
		sess.isNew = false
	} else if err := m.store.Touch(ctx, sess.ID, m.ttl); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}

// Save persists sess without touching any cookie.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil || !(sess.dirty || sess.isNew) {
		return nil
	}
	if err := m.store.Save(ctx, sess.ID, sess.values, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.dirty, sess.isNew = false, false
	return nil
}

// Renew moves sess to a fresh ID and keeps its values. The old ID is
// deleted on the next Commit. Called whenever the token changes hands.
func (m *Manager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew && sess.previousID == "" {
		sess.previousID = sess.ID
	}
	sess.ID = uuid.NewString()
	sess.dirty = true
}

// DefaultBaseURL is the base URL new sessions start with.
func (m *Manager) DefaultBaseURL() string { return m.defaultBaseURL }

func (s *Session) get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

func (s *Session) set(key, value string) {
	if s.values == nil {
		s.values = make(Values)
	}
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

func (s *Session) del(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// IsNew reports whether the session has never been saved.
func (s *Session) IsNew() bool { return s.isNew }

// Dirty reports whether the session has unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// Token returns the bearer token, "" when absent.
func (s *Session) Token() string { return strings.TrimSpace(s.get(keyToken)) }

// SetToken stores the opaque bearer token.
func (s *Session) SetToken(token string) { s.set(keyToken, strings.TrimSpace(token)) }

// ClearToken forgets the bearer token.
func (s *Session) ClearToken() { s.del(keyToken) }

// BaseURL returns the stored API base URL, falling back to the default.
// The returned value is persisted so the last used URL sticks.
func (s *Session) BaseURL() string {
	v, err := NormalizeBaseURL(s.get(keyBaseURL))
	if err != nil {
		v = s.defaultBaseURL
		if v == "" {
			v = DefaultBaseURL
		}
	}
	s.set(keyBaseURL, v)
	return v
}

// SetBaseURL stores a new API base URL.
func (s *Session) SetBaseURL(raw string) error {
	v, err := NormalizeBaseURL(raw)
	if err != nil {
		return err
	}
	s.set(keyBaseURL, v)
	return nil
}

// Theme returns the stored theme or DefaultTheme.
func (s *Session) Theme() Theme {
	t, err := ParseTheme(s.get(keyTheme))
	if err != nil {
		return DefaultTheme
	}
	return t
}

// SetTheme stores t.
func (s *Session) SetTheme(t Theme) error {
	parsed, err := ParseTheme(string(t))
	if err != nil {
		return err
	}
	s.set(keyTheme, string(parsed))
	return nil
}

// ToggleTheme flips the theme and returns the new value.
func (s *Session) ToggleTheme() Theme {
	next := s.Theme().Toggle()
	s.set(keyTheme, string(next))
	return next
}
