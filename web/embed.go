// Package web embeds the page templates and static assets served by the
// HTTP server.
package web

import "embed"

// TemplatesFS holds the HTML templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and page script.
//
//go:embed static/*
var StaticFS embed.FS
