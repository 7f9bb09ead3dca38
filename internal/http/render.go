package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	applog "sgfcp/internal/log"
	appweb "sgfcp/web"
)

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"add":   func(a, b int) int { return a + b },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS,
		"templates/*.html", "templates/partials/*.html")
}

// render executes name into a buffer so a template error never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.renderWith(w, r, NewHTMXResponse().Status(status), name, data)
}

// renderWith is render for responses that also carry htmx headers.
func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		ctx := r.Context()
		applog.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			"template", name, applog.FieldOperation, applog.OpRender, applog.FieldError, err)
		InternalServerError("Error al renderizar la pagina").Write(w)
		return
	}
	b.Body(buf.Bytes()).Header("Content-Type", "text/html; charset=utf-8").Write(w)
}
