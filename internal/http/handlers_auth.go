package http

import (
	"net/http"

	"sgfcp/internal/auth"
	"sgfcp/internal/dashboard"
	applog "sgfcp/internal/log"
)

const (
	msgBaseURLSaved   = "Backend actualizado"
	msgBaseURLInvalid = "URL invalida. Usa http:// o https://"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).Token() != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", s.newPage(r, "Ingresar"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de solicitud invalido").Write(w)
		return
	}
	params := ParseLoginParams(parser)

	if params.BaseURL != "" && params.BaseURL != sess.BaseURL() {
		if err := sess.SetBaseURL(params.BaseURL); err != nil {
			s.loginFailed(w, r, params.Email, statusLine{Message: msgBaseURLInvalid, Tone: auth.ToneWarn})
			return
		}
		s.deps.Dashboards.Forget(sess.ID)
	}

	outcome := s.deps.Guard.Login(ctx, sess, params.Email, params.Password)
	if !outcome.OK {
		s.loginFailed(w, r, params.Email, statusLine{Message: outcome.Message, Tone: outcome.Tone})
		return
	}

	anonymous := sess.ID
	s.deps.Sessions.Renew(sess)
	s.deps.Dashboards.Forget(anonymous)
	s.deps.Dashboards.Get(sess.ID).Dispatch(dashboard.Authorized{Name: outcome.User.DisplayName()})
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loginFailed answers htmx with the status fragment and plain posts with
// the whole login page.
func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, email string, st statusLine) {
	if isHTMX(r) {
		s.render(w, r, http.StatusOK, "status", st)
		return
	}
	page := s.newPage(r, "Ingresar")
	page.Email = email
	page.Status = &st
	s.render(w, r, http.StatusOK, "login.html", page)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.deps.Guard.Logout(r.Context(), sess)
	s.deps.Dashboards.Forget(sess.ID)
	// Theme and backend survive logout; only the ID is retired.
	s.deps.Sessions.Renew(sess)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	theme := sess.ToggleTheme()
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Theme toggled", "theme", theme.String())

	if isHTMX(r) {
		NewHTMXResponse().Refresh().Write(w)
		return
	}
	target := "/login"
	if sess.Token() != "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleBaseURL switches the backend. A token issued by the previous
// backend means nothing to the new one, so it is dropped.
func (s *Server) handleBaseURL(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}
	sess := sessionFrom(r)
	previous := sess.BaseURL()

	if err := sess.SetBaseURL(sanitizeInput(r.PostForm.Get("base_url"))); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "status", statusLine{Message: msgBaseURLInvalid, Tone: auth.ToneWarn})
		return
	}
	if current := sess.BaseURL(); current != previous {
		sess.ClearToken()
		s.deps.Dashboards.Forget(sess.ID)
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Backend changed",
			applog.FieldSessionID, sess.ID, applog.FieldBaseURL, current)
	}
	s.renderWith(w, r, NewHTMXResponse().TriggerSuccessNotification(msgBaseURLSaved),
		"status", statusLine{Message: msgBaseURLSaved + ": " + sess.BaseURL(), Tone: auth.ToneOK})
}
