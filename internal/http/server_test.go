package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgfcp/internal/api"
	"sgfcp/internal/auth"
	"sgfcp/internal/dashboard"
	applog "sgfcp/internal/log"
	"sgfcp/internal/metrics"
	"sgfcp/internal/session"
)

// fakeAPI serves the backend endpoints the dashboard reads.
func fakeAPI(t *testing.T, admin bool) *httptest.Server {
	t.Helper()
	payloads := map[string]string{
		api.PathTrips:    `[{"id":1,"client_id":1,"driver_id":1,"origin":"Rosario","destination":"Cordoba","start_date":"2024-01-05","rate":1000,"estimated_kms":0,"calculated_per_km":false,"state_id":"Finalizado"}]`,
		api.PathExpenses: `[{"id":1,"trip_id":1,"date":"2024-01-10","amount":100,"expense_type":"Peaje"}]`,
		api.PathAdvances: `[{"id":1,"driver_id":1,"date":"2024-01-11","amount":50}]`,
		api.PathDrivers:  `[{"id":1,"name":"Ana","surname":"Paz","active":true}]`,
		api.PathTrucks:   `[{"id":1,"plate":"AB123CD","operational":true}]`,
		api.PathClients:  `[{"id":1,"name":"Acme"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case api.PathLogin:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				http.Error(w, `{"error":"bad credentials"}`, http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"user":         map[string]any{"name": "Ana", "is_admin": admin},
			})
			return
		case api.PathMe:
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":1,"name":"Ana","is_admin":true}`))
			return
		}
		body, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testClient struct {
	t    *testing.T
	http *http.Client
	base string
	csrf string
}

var csrfMeta = regexp.MustCompile(`name="csrf-token" content="([^"]+)"`)

func newTestServer(t *testing.T, apiURL string, loginLimit int) *testClient {
	t.Helper()
	logger := applog.Discard()
	m := metrics.New()

	sessions := session.NewManager(session.NewMemoryStore(), session.Config{
		Secret:         "test-secret",
		DefaultBaseURL: apiURL,
	}, logger)
	guard := auth.NewGuard(func(baseURL, token string) auth.Backend {
		return api.New(baseURL, token)
	}, logger, auth.WithLoginObserver(m.ObserveLogin))

	srv, err := NewServer(Options{LoginRateLimit: loginLimit}, Deps{
		Sessions:   sessions,
		Guard:      guard,
		Dashboards: dashboard.NewRegistry(16, time.Hour, logger, m.ObserveLoad),
		API: func(baseURL, token string) *api.Client {
			return api.New(baseURL, token, api.WithObserver(m.ObserveAPI))
		},
		Metrics: m,
		Logger:  logger,
		Now:     func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: ts.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(method, path string, form url.Values, htmx bool) (*http.Response, string) {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set(session.CSRFHeader, c.csrf)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(raw)
}

// openLogin loads the login page and keeps its CSRF token.
func (c *testClient) openLogin() {
	c.t.Helper()
	resp, body := c.do(http.MethodGet, "/login", nil, false)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	match := csrfMeta.FindStringSubmatch(body)
	require.Len(c.t, match, 2, "login page carries a csrf token")
	c.csrf = match[1]
}

func (c *testClient) login(password string) (*http.Response, string) {
	c.t.Helper()
	return c.do(http.MethodPost, "/login", url.Values{
		"csrf_token": {c.csrf},
		"email":      {"ana@example.com"},
		"password":   {password},
	}, false)
}

// sessionID returns the session cookie the client currently holds.
func (c *testClient) sessionID() string {
	c.t.Helper()
	u, err := url.Parse(c.base)
	require.NoError(c.t, err)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == session.DefaultCookieName {
			return ck.Value
		}
	}
	return ""
}

func TestHealthReadyAndMetrics(t *testing.T) {
	c := newTestServer(t, fakeAPI(t, true).URL, 10)

	resp, body := c.do(http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	resp, body = c.do(http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ready"`)

	resp, body = c.do(http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "sgfcp_http_requests_total")

	resp, _ = c.do(http.MethodGet, "/static/app.css", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, _ = c.do(http.MethodGet, "/.env", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, body = c.do(http.MethodGet, "/metrics", nil, false)
	assert.Contains(t, body, "sgfcp_suspicious_requests_total 1")
}

func TestDashboardRequiresSession(t *testing.T) {
	c := newTestServer(t, fakeAPI(t, true).URL, 10)

	resp, _ := c.do(http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	c.openLogin()
	resp, _ = c.do(http.MethodPost, "/dashboard/reload", url.Values{}, true)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	c := newTestServer(t, fakeAPI(t, true).URL, 10)
	c.openLogin()

	resp, _ := c.do(http.MethodPost, "/login", url.Values{
		"email":    {"ana@example.com"},
		"password": {"secret"},
	}, false)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginAndDashboardFlow(t *testing.T) {
	c := newTestServer(t, fakeAPI(t, true).URL, 10)
	c.openLogin()
	anonymous := c.sessionID()
	require.NotEmpty(t, anonymous)

	resp, _ := c.login("secret")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	authenticated := c.sessionID()
	assert.NotEqual(t, anonymous, authenticated, "login issues a new session id")

	resp, body := c.do(http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sesion activa. Hola Ana")
	assert.Contains(t, body, `hx-trigger="load"`)

	resp, _ = c.do(http.MethodGet, "/dashboard/export.csv?dataset=trips", nil, false)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "nothing to export before the first load")

	resp, body = c.do(http.MethodPost, "/dashboard/reload", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, dashboard.MsgLoaded)
	assert.Contains(t, body, "Acme")
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "dashboard:loaded")

	resp, body = c.do(http.MethodGet, "/dashboard/export.csv?dataset=trips", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "sgfcp-trips.csv")
	assert.True(t, strings.HasPrefix(body, "id,fecha"))

	resp, _ = c.do(http.MethodGet, "/dashboard/export.csv?dataset=drivers", nil, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/dashboard/filter", url.Values{"from": {"2024-03-01"}, "to": {"2024-01-01"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, dashboard.MsgInvalidRange)

	resp, body = c.do(http.MethodPost, "/dashboard/filter", url.Values{"from": {"2024-02-01"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="2024-02-01"`)
	assert.Contains(t, body, "Sin datos", "no trips after February")

	resp, body = c.do(http.MethodPost, "/dashboard/filter/reset", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Acme")

	resp, _ = c.do(http.MethodPost, "/dashboard/charts/pie/expand", url.Values{}, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/dashboard/charts/revenue/expand", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="chart-modal"`)
	assert.Equal(t, 1, strings.Count(body, "chart-placeholder"), "grid cell of the expanded chart")
	assert.Contains(t, body, `<div class="modal-backdrop" hx-post="/dashboard/charts/close"`)

	resp, body = c.do(http.MethodGet, "/dashboard/body", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="chart-modal"`, "expanded chart survives a re-render")

	resp, body = c.do(http.MethodPost, "/dashboard/charts/close", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `id="chart-modal"`)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "chart:closed")

	resp, _ = c.do(http.MethodPost, "/settings/theme", url.Values{}, true)
	require.Equal(t, "true", resp.Header.Get("HX-Refresh"))

	resp, _ = c.do(http.MethodPost, "/logout", url.Values{}, true)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
	assert.NotEqual(t, authenticated, c.sessionID(), "logout retires the session id")

	resp, _ = c.do(http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = c.do(http.MethodGet, "/login", nil, false)
	assert.Contains(t, body, `data-theme="dark"`, "theme survives logout")
}

func TestReloadFailureNotifies(t *testing.T) {
	backend := fakeAPI(t, true)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == api.PathTrucks {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		backend.Config.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(failing.Close)

	c := newTestServer(t, failing.URL, 10)
	c.openLogin()
	resp, _ := c.login("secret")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/dashboard/reload", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, dashboard.MsgLoadFailed)

	trigger := resp.Header.Get("HX-Trigger")
	assert.Contains(t, trigger, `"show-notification"`)
	assert.Contains(t, trigger, `"type":"error"`)
	assert.NotContains(t, trigger, "dashboard:loaded")
}

func TestLoginFailures(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		c := newTestServer(t, fakeAPI(t, true).URL, 10)
		c.openLogin()
		resp, body := c.do(http.MethodPost, "/login", url.Values{
			"email": {"ana@example.com"}, "password": {"nope"},
		}, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, auth.MsgLoginFailed)
	})

	t.Run("not admin", func(t *testing.T) {
		c := newTestServer(t, fakeAPI(t, false).URL, 10)
		c.openLogin()
		resp, body := c.login("secret")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, auth.MsgNotAdmin)

		resp, _ = c.do(http.MethodGet, "/", nil, false)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		c := newTestServer(t, fakeAPI(t, true).URL, 10)
		c.openLogin()
		_, body := c.do(http.MethodPost, "/login", url.Values{"email": {""}}, true)
		assert.Contains(t, body, auth.MsgMissingFields)
	})
}

func TestLoginRateLimit(t *testing.T) {
	c := newTestServer(t, fakeAPI(t, true).URL, 2)
	c.openLogin()

	for i := 0; i < 2; i++ {
		resp, _ := c.do(http.MethodPost, "/login", url.Values{"password": {"x"}}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := c.do(http.MethodPost, "/login", url.Values{"password": {"x"}}, true)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSettings(t *testing.T) {
	apiSrv := fakeAPI(t, true)
	c := newTestServer(t, apiSrv.URL, 10)
	c.openLogin()

	resp, body := c.do(http.MethodPost, "/settings/base-url", url.Values{"base_url": {"ftp://example.com"}}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, msgBaseURLInvalid)

	resp, body = c.do(http.MethodPost, "/settings/base-url", url.Values{"base_url": {"https://api.example.com/"}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgBaseURLSaved)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), `"type":"success"`)

	_, body = c.do(http.MethodGet, "/login", nil, false)
	assert.Contains(t, body, `value="https://api.example.com"`)
	assert.Contains(t, body, `data-theme="light"`)

	resp, _ = c.do(http.MethodPost, "/settings/theme", url.Values{}, true)
	assert.Equal(t, "true", resp.Header.Get("HX-Refresh"))

	_, body = c.do(http.MethodGet, "/login", nil, false)
	assert.Contains(t, body, `data-theme="dark"`)
}
