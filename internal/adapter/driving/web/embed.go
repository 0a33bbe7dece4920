package web

import "embed"

// StaticFS holds the embedded static assets: the stylesheet and htmx 2.0.4.
//
//go:embed static/*
var StaticFS embed.FS
