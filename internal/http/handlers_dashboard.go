package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"sgfcp/internal/auth"
	"sgfcp/internal/dashboard"
	"sgfcp/internal/export"
	applog "sgfcp/internal/log"
)

// bodyData feeds the dashboard body partial.
type bodyData struct {
	View dashboard.View
}

// handleDashboard validates the session and serves the shell. The shell
// asks for the first load itself.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	user, err := s.deps.Guard.Authorize(ctx, sess)
	if err != nil {
		var authErr *auth.AuthError
		if !errors.As(err, &authErr) {
			applog.FromContext(ctx).WarnContext(ctx, "Session check aborted", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "No se pudo validar la sesion").Write(w)
			return
		}
		if authErr.Reason != auth.ReasonMissingToken {
			s.deps.Dashboards.Forget(sess.ID)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	state := s.deps.Dashboards.Get(sess.ID).Dispatch(dashboard.Authorized{Name: user.DisplayName()})

	page := s.newPage(r, "Dashboard")
	page.View = dashboard.BuildView(state, s.viewOptions(sess))
	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	client := s.deps.API(sess.BaseURL(), sess.Token())
	state := s.deps.Dashboards.Get(sess.ID).Reload(ctx, client)

	b := NewHTMXResponse()
	switch {
	case state.Status.Tone == dashboard.ToneError:
		b.TriggerErrorNotification(state.Status.Message)
	case state.Loaded:
		b.TriggerDashboardLoaded(state.AppliedSeq)
	}
	s.renderBody(w, r, b, state)
}

func (s *Server) handleBody(w http.ResponseWriter, r *http.Request) {
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).State()
	s.renderBody(w, r, NewHTMXResponse(), state)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}
	params := ParseFilterParams(r.PostForm)
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).Dispatch(dashboard.FilterApplied{From: params.From, To: params.To})
	s.renderBody(w, r, NewHTMXResponse(), state)
}

func (s *Server) handleFilterReset(w http.ResponseWriter, r *http.Request) {
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).Dispatch(dashboard.FilterReset{})
	s.renderBody(w, r, NewHTMXResponse(), state)
}

func (s *Server) handleChartExpand(w http.ResponseWriter, r *http.Request) {
	id, ok := dashboard.ParseChartID(r.PathValue("id"))
	if !ok {
		NotFoundError("Grafico desconocido").Write(w)
		return
	}
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).Dispatch(dashboard.ChartExpanded{ID: id})
	s.renderBody(w, r, NewHTMXResponse(), state)
}

func (s *Server) handleChartClose(w http.ResponseWriter, r *http.Request) {
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).Dispatch(dashboard.ChartClosed{})
	s.renderBody(w, r, NewHTMXResponse().TriggerChartClosed(), state)
}

// handleExport streams the filtered collection as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dataset, err := export.ParseDataset(r.URL.Query().Get("dataset"))
	if err != nil {
		BadRequestError("Dataset desconocido").Write(w)
		return
	}
	state := s.deps.Dashboards.Get(sessionFrom(r).ID).State()
	if !state.Loaded {
		ErrorResponse(http.StatusConflict, "Todavia no hay datos cargados").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, dataset, state.Filtered(), state.Snapshot.Index); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "CSV export failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
		InternalServerError("No se pudo exportar").Write(w)
		return
	}
	NewHTMXResponse().
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="`+export.Filename(dataset, state.Filter)+`"`).
		Body(buf.Bytes()).
		Write(w)
}

func (s *Server) renderBody(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, state dashboard.State) {
	view := dashboard.BuildView(state, s.viewOptions(sessionFrom(r)))
	for _, e := range view.Errors {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Chart render failed", applog.FieldError, e)
	}
	s.renderWith(w, r, b, "body", bodyData{View: view})
}
