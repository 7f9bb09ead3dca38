package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseFilterParams(t *testing.T) {
	tests := []struct {
		name     string
		formData url.Values
		want     FilterParams
	}{
		{
			name:     "both bounds",
			formData: url.Values{"from": {"2024-01-01"}, "to": {"2024-01-31"}},
			want:     FilterParams{From: "2024-01-01", To: "2024-01-31"},
		},
		{
			name:     "trimmed and control characters removed",
			formData: url.Values{"from": {" 2024-01-01\x00 "}},
			want:     FilterParams{From: "2024-01-01"},
		},
		{
			name:     "empty form",
			formData: url.Values{},
			want:     FilterParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFilterParams(tt.formData); got != tt.want {
				t.Errorf("ParseFilterParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        LoginParams
	}{
		{
			name:        "form encoded",
			contentType: "application/x-www-form-urlencoded",
			body:        "email=admin%40sgfcp.com&password=secret&base_url=http%3A%2F%2Fapi%3A5000",
			want:        LoginParams{Email: "admin@sgfcp.com", Password: "secret", BaseURL: "http://api:5000"},
		},
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"email":" admin@sgfcp.com ","password":"secret"}`,
			want:        LoginParams{Email: "admin@sgfcp.com", Password: "secret"},
		},
		{
			name:        "empty body",
			contentType: "application/x-www-form-urlencoded",
			body:        "",
			want:        LoginParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := ParseLoginParams(p); got != tt.want {
				t.Errorf("ParseLoginParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParserReusesParsedForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40b.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := req.ParseForm(); err != nil {
		t.Fatal(err)
	}

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("email"); got != "a@b.com" {
		t.Errorf("Get(email) = %q, want a@b.com", got)
	}
}

func TestRequestBodyParserInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":`))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("Parse() should fail on truncated JSON")
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Error("plain request detected as htmx")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Error("htmx request not detected")
	}
}
