// Package web holds the dashboard's embedded templates and static assets.
package web

import "embed"

// TemplatesFS holds the page and partial templates. index.html is the
// dashboard shell, overview.html defines the "overview" partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the htmx glue script.
//
//go:embed static/*
var StaticFS embed.FS
