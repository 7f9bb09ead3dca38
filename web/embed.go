package web

import "embed"

// TemplatesFS embeds the page layouts and htmx partials.
//
//go:embed templates/*.html templates/partials/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
