package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	applog "sgfcp/internal/log"
	"sgfcp/internal/session"
)

type sessionKey struct{}

func withSessionContext(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFrom returns the request session. withSession guarantees one.
func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*session.Session)
	return sess
}

// commitWriter persists the session right before the first byte goes out,
// while headers can still carry the cookie.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *commitWriter) flush() {
	if w.committed {
		return
	}
	w.committed = true
	w.commit()
}

// withSession loads the session before the handler and commits it with the
// response.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOpsPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		sess, err := s.deps.Sessions.Load(ctx, r)
		if err != nil {
			applog.FromContext(ctx).ErrorContext(ctx, "Session load failed", applog.FieldError, err)
			InternalServerError("Sesion no disponible").Write(w)
			return
		}

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() {
			if err := s.deps.Sessions.Commit(ctx, w, sess); err != nil {
				applog.FromContext(ctx).ErrorContext(ctx, "Session commit failed",
					applog.FieldSessionID, sess.ID, applog.FieldError, err)
			}
		}
		next.ServeHTTP(cw, r.WithContext(withSessionContext(ctx, sess)))
		cw.flush()
	})
}

// withCSRF rejects state-changing requests without the session's token.
func (s *Server) withCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		sess := sessionFrom(r)
		token := r.Header.Get(session.CSRFHeader)
		if token == "" {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			if err := r.ParseForm(); err == nil {
				token = r.PostForm.Get(session.CSRFFormField)
			}
		}
		if err := s.deps.Sessions.VerifyCSRF(sess, token); err != nil {
			ctx := r.Context()
			applog.FromContext(ctx).WarnContext(ctx, "CSRF check failed",
				applog.FieldError, err, "missing", errors.Is(err, session.ErrCSRFTokenMissing))
			ForbiddenError("Token CSRF invalido. Recarga la pagina").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken sends sessions without a token back to the login screen.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r).Token() != "" {
			next(w, r)
			return
		}
		if isHTMX(r) {
			NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func isOpsPath(p string) bool {
	switch p {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return strings.HasPrefix(p, "/static/")
}
