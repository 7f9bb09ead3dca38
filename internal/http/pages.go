package http

import (
	"net/http"

	"sgfcp/internal/dashboard"
	"sgfcp/internal/session"
)

// statusLine is the one-line message shown under forms.
type statusLine struct {
	Message string
	Tone    string
}

// pageData feeds the layout and both screens.
type pageData struct {
	Title          string
	CSRF           string
	Theme          string
	Dark           bool
	BaseURL        string
	DefaultBaseURL string
	Email          string
	Status         *statusLine
	View           dashboard.View
}

func (s *Server) newPage(r *http.Request, title string) pageData {
	sess := sessionFrom(r)
	theme := sess.Theme()
	return pageData{
		Title:          title,
		CSRF:           s.deps.Sessions.CSRFToken(sess),
		Theme:          theme.String(),
		Dark:           theme == session.ThemeDark,
		BaseURL:        sess.BaseURL(),
		DefaultBaseURL: s.deps.Sessions.DefaultBaseURL(),
	}
}

func (s *Server) viewOptions(sess *session.Session) dashboard.ViewOptions {
	return dashboard.ViewOptions{
		Dark:              sess.Theme() == session.ThemeDark,
		Now:               s.deps.Now(),
		MaintenanceWindow: s.opts.MaintenanceWindow,
	}
}
