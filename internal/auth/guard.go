// Package auth validates dashboard sessions against the backend and runs
// the admin login flow.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"sgfcp/internal/api"
	applog "sgfcp/internal/log"
	"sgfcp/internal/session"
)

// Login status messages.
const (
	MsgMissingFields = "Completa email y password"
	MsgInvalidEmail  = "Email invalido"
	MsgNotAdmin      = "Acceso denegado. Solo admin"
	MsgLoginOK       = "Login OK. Redireccionando..."
	MsgLoginFailed   = "No se pudo autenticar"
)

// Tones for login status messages.
const (
	ToneOK    = "ok"
	ToneWarn  = "warn"
	ToneError = "error"
)

// Backend is the part of the API client the guard needs.
type Backend interface {
	Me(ctx context.Context) (api.User, error)
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
}

// Dialer returns a Backend for a base URL and token.
type Dialer func(baseURL, token string) Backend

// Guard decides whether a session may see the dashboard.
type Guard struct {
	dial     Dialer
	group    singleflight.Group
	validate *validator.Validate
	logger   *applog.Logger
	observe  func(outcome string)
}

// Option configures a Guard.
type Option func(*Guard)

// WithLoginObserver receives "ok", "denied", "invalid" or "error" after
// every login attempt.
func WithLoginObserver(fn func(outcome string)) Option {
	return func(g *Guard) { g.observe = fn }
}

// NewGuard builds a Guard.
func NewGuard(dial Dialer, logger *applog.Logger, opts ...Option) *Guard {
	if logger == nil {
		logger = applog.Discard()
	}
	g := &Guard{
		dial:     dial,
		validate: validator.New(),
		logger:   logger.WithComponent(applog.ComponentAuth),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize checks the session token with /auth/me. Invalid tokens and
// non-admin users get their token cleared. Nothing is retried.
func (g *Guard) Authorize(ctx context.Context, sess *session.Session) (api.User, error) {
	token := sess.Token()
	if token == "" {
		return api.User{}, &AuthError{Reason: ReasonMissingToken}
	}
	baseURL := sess.BaseURL()

	ch := g.group.DoChan(flightKey(baseURL, token), func() (any, error) {
		// Shared by every waiting caller, so not bound to any one request.
		return g.dial(baseURL, token).Me(context.WithoutCancel(ctx))
	})

	var (
		user api.User
		err  error
	)
	select {
	case <-ctx.Done():
		return api.User{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			err = res.Err
		} else {
			user = res.Val.(api.User)
		}
	}

	if err != nil {
		sess.ClearToken()
		g.logger.WarnContext(ctx, "Session token rejected",
			applog.FieldSessionID, sess.ID, applog.FieldBaseURL, baseURL, applog.FieldError, err)
		return api.User{}, &AuthError{Reason: ReasonInvalidToken, Err: err}
	}
	if !user.IsAdmin {
		sess.ClearToken()
		g.logger.WarnContext(ctx, "Non-admin session rejected", applog.FieldSessionID, sess.ID)
		return api.User{}, &AuthError{Reason: ReasonNotAdmin}
	}
	return user, nil
}

func flightKey(baseURL, token string) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + token))
	return hex.EncodeToString(sum[:])
}

// LoginForm is the submitted credentials.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginOutcome is what the login screen shows.
type LoginOutcome struct {
	OK      bool
	Message string
	Tone    string
	User    api.User
}

// Login authenticates against the session's base URL and stores the token
// when the user is an admin.
func (g *Guard) Login(ctx context.Context, sess *session.Session, email, password string) LoginOutcome {
	form := LoginForm{Email: strings.TrimSpace(email), Password: strings.TrimSpace(password)}
	if err := g.validate.Struct(form); err != nil {
		g.report("invalid")
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					return LoginOutcome{Message: MsgMissingFields, Tone: ToneWarn}
				}
			}
		}
		return LoginOutcome{Message: MsgInvalidEmail, Tone: ToneWarn}
	}

	baseURL := sess.BaseURL()
	res, err := g.dial(baseURL, "").Login(ctx, form.Email, form.Password)
	if err != nil {
		g.report("error")
		g.logger.WarnContext(ctx, "Login failed",
			applog.FieldBaseURL, baseURL, applog.FieldOperation, applog.OpLogin, applog.FieldError, err)
		return LoginOutcome{Message: MsgLoginFailed, Tone: ToneError}
	}
	if res.User == nil || !res.User.IsAdmin {
		g.report("denied")
		sess.ClearToken()
		return LoginOutcome{Message: MsgNotAdmin, Tone: ToneWarn}
	}
	if strings.TrimSpace(res.AccessToken) == "" {
		g.report("error")
		g.logger.WarnContext(ctx, "Login response without token", applog.FieldBaseURL, baseURL)
		return LoginOutcome{Message: MsgLoginFailed, Tone: ToneError}
	}

	g.report("ok")
	sess.SetToken(res.AccessToken)
	g.logger.InfoContext(ctx, "Admin logged in",
		applog.FieldSessionID, sess.ID, applog.FieldOperation, applog.OpLogin)
	return LoginOutcome{OK: true, Message: MsgLoginOK, Tone: ToneOK, User: *res.User}
}

// Logout forgets the session token.
func (g *Guard) Logout(ctx context.Context, sess *session.Session) {
	sess.ClearToken()
	g.logger.InfoContext(ctx, "Session logged out",
		applog.FieldSessionID, sess.ID, applog.FieldOperation, applog.OpLogout)
}

func (g *Guard) report(outcome string) {
	if g.observe != nil {
		g.observe(outcome)
	}
}
